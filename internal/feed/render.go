package feed

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	style "github.com/hanpama/groupfeed/internal/style"
)

const (
	loadingText = "...loading"
	errorText   = "ERROR (check your token in the configuration)"
)

var (
	heading = lipgloss.NewStyle().Bold(true).MarginTop(1)
	strong  = lipgloss.NewStyle().Bold(true)
	faint   = lipgloss.NewStyle().Faint(true)
	quote   = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		PaddingLeft(1)
)

func renderStatus[T any](st State[T]) (string, bool) {
	switch st.Status {
	case Pending:
		return loadingText, true
	case Failed:
		return errorText, true
	}
	return "", false
}

func button(label string) string {
	return style.Terminal(style.Button).Render(label)
}

func groupRow(g Group, action string) string {
	row := lipgloss.JoinHorizontal(lipgloss.Center, g.Name+"  "+faint.Render(g.GroupID), button(action))
	return style.Terminal(style.Group).Render(row)
}

// RenderGroups renders the group list state.
func RenderGroups(st State[GroupSections]) string {
	if s, done := renderStatus(st); done {
		return s
	}
	var b strings.Builder
	b.WriteString(heading.Render("My Groups"))
	b.WriteByte('\n')
	for _, g := range st.Data.Mine {
		b.WriteString(groupRow(g, "LEAVE GROUP"))
		b.WriteByte('\n')
	}
	b.WriteString(heading.Render("Available Groups"))
	b.WriteByte('\n')
	for _, g := range st.Data.Others {
		b.WriteString(groupRow(g, "JOIN GROUP"))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderPosts renders the discussion state.
func RenderPosts(st State[[]Post]) string {
	if s, done := renderStatus(st); done {
		return s
	}
	var b strings.Builder
	b.WriteString(heading.Render("Posts"))
	b.WriteByte('\n')
	for _, p := range st.Data {
		author := lipgloss.JoinVertical(lipgloss.Left,
			strong.Render(p.Author.Name),
			faint.Render(p.Author.AvatarURL()),
		)
		card := lipgloss.JoinVertical(lipgloss.Left, author, quote.Render(p.Content))
		b.WriteString(style.Terminal(style.Group).Render(card))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderEditor renders the post editor holding text.
func RenderEditor(text string) string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		style.Terminal(style.TextArea).Render(text),
		button("Post"),
	)
}
