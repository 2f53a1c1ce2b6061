package main

import (
	"composer/cmd"
	"flag"
	"fmt"
	"log"
	"os"
)

const banner = `
  ____                                        
 / ___|___  _ __ ___  _ __   ___  ___  ___ _ __ 
| |   / _ \| '_ ` + "`" + ` _ \| '_ \ / _ \/ __|/ _ \ '__|
| |__| (_) | | | | | | |_) | (_) \__ \  __/ |   
 \____\___/|_| |_| |_| .__/ \___/|___/\___|_|   
                     |_|                        
`

func main() {
	var (
		scanDir  string
		fetchDir string
		file     string
		lyricsID int
		search   bool
		dryRun   bool
		server   bool
		port     int
	)

	flag.StringVar(&scanDir, "scan", "", "Scan a directory and list its music files")
	flag.StringVar(&fetchDir, "fetch", "", "Download lyrics for every file in a directory that has none")
	flag.StringVar(&file, "file", "", "Download lyrics for a single music file")
	flag.IntVar(&lyricsID, "id", 0, "LRCLib lyrics ID to store for -file")
	flag.BoolVar(&search, "search", false, "With -file, print the ranked search results instead of downloading")
	flag.BoolVar(&dryRun, "dry-run", false, "Show what would be stored without writing anything")
	flag.BoolVar(&server, "server", false, "Start in web server mode")
	flag.IntVar(&port, "port", 8080, "Port for web server mode")
	flag.Parse()

	modes := 0
	for _, set := range []bool{scanDir != "", fetchDir != "", file != "", server} {
		if set {
			modes++
		}
	}
	if modes == 0 {
		flag.Usage()
		return
	}
	if modes > 1 {
		fmt.Fprintln(os.Stderr, "You can use only one of -scan, -fetch, -file and -server at a time.")
		flag.Usage()
		os.Exit(2)
	}
	if (lyricsID != 0 || search) && file == "" {
		log.Fatalf("-id and -search require -file")
	}

	opts := cmd.DefaultOptions()
	// Console-only logging for one-shot commands keeps their output readable
	opts.LogToFile = server
	app, err := cmd.NewApp(opts)
	if err != nil {
		log.Fatalf("Error: %s", err)
	}
	defer app.Close()

	// Server mode takes precedence
	if server {
		if err := cmd.StartWebServer(app, port); err != nil {
			log.Printf("Failed to start server: %v", err)
			app.Close()
			os.Exit(1)
		}
		return
	}

	fmt.Println(titleStyle.Render(banner))

	cli := newCLI(app, dryRun)
	switch {
	case scanDir != "":
		err = cli.scan(scanDir)
	case fetchDir != "":
		err = cli.fetch(fetchDir)
	case file != "":
		err = cli.file(file, lyricsID, search)
	}

	if err != nil {
		log.Printf("Error: %s", err)
		app.Close()
		os.Exit(1)
	}
}
