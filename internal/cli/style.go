package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/multierr"
)

var (
	infoStyle    = lipgloss.NewStyle().Faint(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

func printInfo(format string, a ...any) {
	fmt.Println(infoStyle.Render("[*] " + fmt.Sprintf(format, a...)))
}

func printWarn(format string, a ...any) {
	fmt.Println(warnStyle.Render("[!] " + fmt.Sprintf(format, a...)))
}

func printSuccess(format string, a ...any) {
	fmt.Println(successStyle.Render("[+++] " + fmt.Sprintf(format, a...)))
}

func printErr(err error) {
	for _, e := range multierr.Errors(err) {
		fmt.Fprintln(os.Stderr, errStyle.Render("[-] "+e.Error()))
	}
}

// progressBar redraws a single terminal line, only when the shown percentage
// changes.
type progressBar struct {
	bar  progress.Model
	last int
}

func newProgressBar() *progressBar {
	return &progressBar{
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		last: -1,
	}
}

func (p *progressBar) Update(percent float64) {
	shown := int(percent)
	if shown == p.last {
		return
	}
	p.last = shown
	fmt.Printf("\r%s %3d%%", p.bar.ViewAs(percent/100), shown)
	if shown >= 100 {
		fmt.Println()
	}
}
