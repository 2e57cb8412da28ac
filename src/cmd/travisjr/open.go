package main

import (
	"os/exec"
	"runtime"

	"travisjr/src/intent"
)

// openIntent hands the intent's URL to the desktop's default handler, which
// opens a browser for web links and a mail client for mailto links.
func openIntent(in intent.Intent) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", in.URL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", in.URL)
	default:
		cmd = exec.Command("xdg-open", in.URL)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
