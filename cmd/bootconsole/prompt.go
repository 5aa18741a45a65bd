package main

import (
	"fmt"

	tty "github.com/mattn/go-tty"

	"egos32/internal/bootcfg"
)

// promptTranslation asks the user, on the real controlling TTY, to
// pick the MMU translation engine exactly as spec.md §6 describes:
// "the user is prompted on the TTY to choose 0 (page tables) or 1
// (software TLB)". Grounded on the teaching kernel's release loader's
// ttyIOProto, which opens the controlling TTY in raw mode before
// talking to it.
func promptTranslation() (bootcfg.Translation, error) {
	t, err := tty.Open()
	if err != nil {
		return bootcfg.SoftTLB, fmt.Errorf("open tty: %w", err)
	}
	defer t.Close()

	t.Output().WriteString("page tables (0) or software TLB (1)? ")
	r, err := t.ReadRune()
	if err != nil {
		return bootcfg.SoftTLB, fmt.Errorf("read tty: %w", err)
	}
	t.Output().WriteString("\n")

	if r == '0' {
		return bootcfg.PageTable, nil
	}
	return bootcfg.SoftTLB, nil
}
