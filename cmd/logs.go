package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/oxidoc/oxidoc/internal/config"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the daemon's log file",
	Run:   runLogs,
}

var (
	logsFollow bool
	logsLines  int
)

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "keep printing as the daemon appends")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "number of trailing lines to show")
}

func runLogs(cmd *cobra.Command, args []string) {
	logPath := config.LogPath()
	f, err := os.Open(logPath)
	if os.IsNotExist(err) {
		fmt.Println("no log file yet; the daemon has not run")
		return
	}
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	defer f.Close()

	offset, err := printTail(f, logsLines)
	if err != nil {
		log.Fatalf("reading log file: %v", err)
	}
	if !logsFollow {
		return
	}

	// the daemon only ever appends, so polling the size is enough
	for {
		time.Sleep(500 * time.Millisecond)
		info, err := os.Stat(logPath)
		if err != nil {
			log.Fatalf("watching log file: %v", err)
		}
		if info.Size() < offset {
			// file was truncated; start over from the top
			offset = 0
		}
		if info.Size() == offset {
			continue
		}
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			log.Fatalf("seeking log file: %v", err)
		}
		n, err := io.Copy(os.Stdout, f)
		if err != nil {
			log.Fatalf("reading log file: %v", err)
		}
		offset += n
	}
}

// printTail writes the last n lines of f to stdout and returns the offset of
// the end of the file.
func printTail(f *os.File, n int) (int64, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return 0, err
	}
	end := int64(len(data))
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return end, nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return end, nil
}
