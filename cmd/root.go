package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	captureDir string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "face-compare",
	Short: "Compare a reference face against a batch of images",
	Long: `Face Compare sends one reference image and up to 250 candidate images
to a face comparison service and reports, for every candidate, whether a
face was found and how similar it is to the reference face.

Access is protected by a single shared password (FACECOMPARE_PASSWORD).
Run 'face-compare login' once; the session is remembered until logout.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save comparison service responses for debugging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
