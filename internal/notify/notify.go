// Package notify posts best-effort desktop notifications.
package notify

import "os/exec"

// Send shows a desktop notification via notify-send. Missing tooling or a
// headless session is never an error; the notification just does not appear.
func Send(title, body string) {
	path, err := exec.LookPath("notify-send")
	if err != nil {
		return
	}
	_ = exec.Command(path, title, body).Run()
}
