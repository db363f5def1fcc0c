package ui

import "github.com/charmbracelet/lipgloss"

const (
	HostIcon       = "👑"
	ReadyIcon      = "✅"
	OfflineIcon    = "📴"
	EliminatedIcon = "❌"
)

var (
	DocStyle       = lipgloss.NewStyle().Margin(1, 2)
	TitleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	BoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	HintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	WarnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	SuccessStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	SelectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	QuestionStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	CorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	WrongStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	MyAnswerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	EmptySeatStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)
