package gridview

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	ColorHeader  = lipgloss.Color("39")
	ColorLoading = lipgloss.Color("240")
	ColorCursor  = lipgloss.Color("212")
	ColorStatus  = lipgloss.Color("245")
	ColorError   = lipgloss.Color("196")
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	loadingStyle = lipgloss.NewStyle().Foreground(ColorLoading).Faint(true)
	cursorStyle  = lipgloss.NewStyle().Foreground(ColorCursor).Reverse(true)
	statusStyle  = lipgloss.NewStyle().Foreground(ColorStatus)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError)
)
