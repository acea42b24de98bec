package cmd

import (
	"fmt"
	"os"
)

// Compact compacts the database to reclaim unused space
func Compact() {
	app := OpenApp()
	defer app.Close()

	path, err := app.Options.DatabasePath()
	if err != nil {
		HandleError(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		HandleError(err)
	}
	sizeBefore := info.Size()

	if err := app.DB.Compact(); err != nil {
		HandleError(err)
	}

	info, err = os.Stat(path)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(info.Size()))
}
