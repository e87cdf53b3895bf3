package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	mode := "offline"
	if a.monitor.Online() {
		mode = "online"
	}
	if n, err := a.queue.Pending(context.Background()); err == nil && n > 0 {
		return fmt.Sprintf("(%s, %d queued)", mode, n)
	}
	return fmt.Sprintf("(%s)", mode)
}

func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to StudyPlan CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
