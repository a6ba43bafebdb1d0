package cli

import "github.com/charmbracelet/lipgloss"

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	tutorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)
