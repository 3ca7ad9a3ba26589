package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rmax-ai/schedgraph/pkg/client"
)

func main() {
	endpoint := os.Getenv("SCHEDGRAPH_URL")
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8091"
	}
	flagURL := flag.String("url", endpoint, "schedgraph-d base URL")
	flagPoll := flag.Duration("poll", 2*time.Second, "refresh interval")
	flag.Parse()

	c := client.NewClient(*flagURL)
	c.SetRetry(client.NoRetry)

	p := tea.NewProgram(initialModel(c, *flagPoll), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("schedgraph-tui: %v\n", err)
		os.Exit(1)
	}
}
