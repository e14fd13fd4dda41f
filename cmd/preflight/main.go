// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	sender := strings.TrimSpace(os.Getenv("SENDER_EMAIL"))
	password := strings.TrimSpace(os.Getenv("SENDER_PASSWORD"))
	smtpPort := strings.TrimSpace(os.Getenv("SMTP_PORT"))
	driver := strings.TrimSpace(os.Getenv("DATABASE_DRIVER"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	addr := strings.TrimSpace(os.Getenv("ADDR"))
	cooldown := strings.TrimSpace(os.Getenv("ALERT_COOLDOWN_SECONDS"))

	if sender == "" {
		warn("SENDER_EMAIL is empty — email alerts will be disabled.")
	} else {
		ok("SENDER_EMAIL=" + sender)
		if password == "" {
			fail("SENDER_PASSWORD is empty but SENDER_EMAIL is set (SMTP auth will fail).")
		}
		ok("SENDER_PASSWORD present")
	}

	if smtpPort != "" {
		if _, err := strconv.Atoi(smtpPort); err != nil {
			fail("SMTP_PORT is not a number: " + smtpPort)
		}
		ok("SMTP_PORT=" + smtpPort)
	}

	switch driver {
	case "", "sqlite":
		ok("database driver: sqlite (default)")
	case "postgres":
		if db == "" {
			fail("DATABASE_DRIVER=postgres but DATABASE_URL is empty.")
		}
		ok("database driver: postgres")
	case "memory":
		warn("DATABASE_DRIVER=memory — tracked clients are lost on restart.")
	default:
		fail("unknown DATABASE_DRIVER: " + driver)
	}

	if cooldown != "" {
		n, err := strconv.Atoi(cooldown)
		if err != nil || n <= 0 {
			fail("ALERT_COOLDOWN_SECONDS must be a positive integer, got: " + cooldown)
		}
		ok("ALERT_COOLDOWN_SECONDS=" + cooldown)
	}

	if addr == "" {
		warn("ADDR is empty; the default bind address will be used.")
	} else {
		ok("ADDR=" + addr)
	}

	ok("preflight passed")
}
