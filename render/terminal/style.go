package terminal

import "github.com/charmbracelet/lipgloss"

var (
	// Role colors — blue for user, emerald for assistant.
	colorUser      = lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#60a5fa"}
	colorAssistant = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34d399"}

	colorDim = lipgloss.AdaptiveColor{Light: "#94a3b8", Dark: "#64748b"}
)

var (
	styleUserBadge      = lipgloss.NewStyle().Foreground(colorUser).Bold(true)
	styleAssistantBadge = lipgloss.NewStyle().Foreground(colorAssistant).Bold(true)

	styleMeta      = lipgloss.NewStyle().Foreground(colorDim)
	styleSeparator = lipgloss.NewStyle().Foreground(colorDim)
)
