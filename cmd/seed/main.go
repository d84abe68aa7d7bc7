package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"

	"bookreview/internal/book"
	"bookreview/internal/config"
	"bookreview/internal/storage"

	"github.com/spf13/cobra"
)

var (
	genres  = []string{"Fiction", "Science Fiction", "History", "Science", "Technology", "Romance", "Mystery", "Biography", "Philosophy", "Art"}
	authors = []string{"Ursula K. Le Guin", "Jane Austen", "Frank Herbert", "Toni Morrison", "Italo Calvino", "Octavia Butler", "Haruki Murakami", "Mary Shelley"}
	words   = []string{"Adventure", "Mystery", "Journey", "Discovery", "Legacy", "Secret", "Quest", "Dream", "Shadow", "Light", "Storm", "River", "Mountain", "Ocean", "Forest", "City"}
	reviews = []string{"Loved it", "Hard to put down", "Slow start", "Beautifully written", "Not for me", "A classic", "Would reread"}
)

var (
	count      int
	seed       int64
	configPath string
)

var rootCmd = &cobra.Command{
	Use:          "seed",
	Short:        "Populate the configured store with generated books",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().IntVar(&count, "count", 100, "number of books to generate")
	rootCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML config file (defaults to CONFIG_PATH)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

	config.LoadEnvFiles()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	if err := store.Books.EnsureSchema(ctx); err != nil {
		return err
	}

	logger.Info("seeding books", "count", count, "driver", store.Driver)
	inserted, skipped := 0, 0
	for _, b := range generate(rand.New(rand.NewSource(seed)), count) {
		if err := store.Books.Insert(ctx, &b); err != nil {
			if errors.Is(err, book.ErrDuplicateTitle) {
				skipped++
				continue
			}
			return fmt.Errorf("insert %q: %w", b.Title, err)
		}
		inserted++
		if inserted%1000 == 0 {
			logger.Info("progress", "inserted", inserted)
		}
	}

	logger.Info("seed complete", "inserted", inserted, "skipped", skipped)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// generate returns n books with distinct titles.
func generate(r *rand.Rand, n int) []book.Book {
	out := make([]book.Book, 0, n)
	for i := 0; i < n; i++ {
		b := book.Book{
			Title:  fmt.Sprintf("Book %d - %s %s", i+1, pick(r, words), pick(r, words)),
			Author: pick(r, authors),
			Genre:  pick(r, genres),
			Rating: math.Round(r.Float64()*50) / 10,
		}
		for j := r.Intn(4); j > 0; j-- {
			b.Reviews = append(b.Reviews, pick(r, reviews))
		}
		b.Normalize()
		out = append(out, b)
	}
	return out
}

func pick(r *rand.Rand, from []string) string {
	return from[r.Intn(len(from))]
}
