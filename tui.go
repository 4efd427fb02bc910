package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"vira/clipboard"
	"vira/command"
	"vira/interpret"
	"vira/jira"
	"vira/log"
	"vira/record"
	"vira/workflow"
)

const (
	tabVoice = iota
	tabTranscript
)

const requestTimeout = 60 * time.Second

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	tabStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 2)
	activeTab     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("63")).Padding(0, 2)
	recStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	actionStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	statusColors  = map[workflow.EntryStatus]lipgloss.Style{
		workflow.Pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		workflow.Completed: lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		workflow.Skipped:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		workflow.Failed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

type tuiModel struct {
	width, height int
	tab           int
	projectKey    string

	voice    *workflow.Voice
	batch    *workflow.Batch
	rec      *record.Recorder
	interp   *interpret.Client
	gateway  *jira.Client
	executed int

	elapsed   time.Duration
	editing   bool
	editInput textinput.Model

	transcript textarea.Model
	cursor     int

	status string
}

func newTUIModel(projectKey string, rec *record.Recorder, interp *interpret.Client, gateway *jira.Client) tuiModel {
	ti := textinput.New()
	ti.CharLimit = 500
	ti.Width = 60

	ta := textarea.New()
	ta.Placeholder = "Paste your meeting transcript here (i to type, v for clipboard)..."
	ta.SetHeight(8)
	ta.CharLimit = 0

	return tuiModel{
		tab:        tabVoice,
		projectKey: projectKey,
		voice:      workflow.NewVoice(),
		batch:      workflow.NewBatch(),
		rec:        rec,
		interp:     interp,
		gateway:    gateway,
		editInput:  ti,
		transcript: ta,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

// interpretAudioCmd uploads one recording; the token pins the response to
// the request that produced it.
func (m tuiModel) interpretAudioCmd(token uint64, payload record.Payload) tea.Cmd {
	interp := m.interp
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		text, action, err := interp.InterpretAudio(ctx, payload.Bytes, payload.Format)
		if err != nil {
			return interpretFailedMsg{Token: token, Err: err}
		}
		return interpretDoneMsg{Token: token, Text: text, Action: action}
	}
}

func (m tuiModel) interpretTextCmd(token uint64, text string) tea.Cmd {
	interp := m.interp
	projectKey := m.projectKey
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		action, err := interp.InterpretText(ctx, text, projectKey)
		if err != nil {
			return interpretFailedMsg{Token: token, Err: err}
		}
		return interpretDoneMsg{Token: token, Text: text, Action: action}
	}
}

func (m tuiModel) executeCmd(action command.Action) tea.Cmd {
	gateway := m.gateway
	projectKey := m.projectKey
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := gateway.Execute(ctx, action, projectKey)
		if err != nil {
			return execFailedMsg{Err: err}
		}
		return execDoneMsg{Result: result}
	}
}

func (m tuiModel) parseTranscriptCmd(token uint64, text string) tea.Cmd {
	interp := m.interp
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		actions, err := interp.InterpretTranscript(ctx, text)
		if err != nil {
			return parseFailedMsg{Token: token, Err: err}
		}
		return parseDoneMsg{Token: token, Actions: actions}
	}
}

func (m tuiModel) executeEntryCmd(index int, action command.Action) tea.Cmd {
	gateway := m.gateway
	projectKey := m.projectKey
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := gateway.Execute(ctx, action, projectKey)
		if err != nil {
			return entryExecFailedMsg{Index: index, Err: err}
		}
		return entryExecDoneMsg{Index: index, Result: result}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.transcript.SetWidth(min(msg.Width-4, 100))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case recordElapsedMsg:
		m.elapsed = msg.Elapsed
		return m, nil

	case interpretDoneMsg:
		if m.voice.InterpretDone(msg.Token, msg.Text, msg.Action) {
			m.status = ""
		}
		return m, nil

	case interpretFailedMsg:
		m.voice.InterpretFailed(msg.Token, msg.Err)
		return m, nil

	case execDoneMsg:
		if err := m.voice.ExecDone(); err == nil {
			m.executed++
			m.status = "action executed"
			log.ActionExecuted("voice", true, "")
		}
		return m, nil

	case execFailedMsg:
		m.voice.ExecFailed(msg.Err)
		log.ActionExecuted("voice", false, msg.Err.Error())
		return m, nil

	case parseDoneMsg:
		if m.batch.ParseDone(msg.Token, msg.Actions) {
			m.cursor = 0
			if m.batch.Len() == 0 {
				m.status = "no actions found in transcript"
			} else {
				m.status = fmt.Sprintf("%d action(s) identified", m.batch.Len())
			}
		}
		return m, nil

	case parseFailedMsg:
		if m.batch.ParseFailed(msg.Token, msg.Err) {
			m.status = ""
		}
		return m, nil

	case entryExecDoneMsg:
		if err := m.batch.ExecDone(msg.Index, msg.Result); err == nil {
			m.executed++
			log.ActionExecuted("batch", true, "")
		}
		return m, nil

	case entryExecFailedMsg:
		if err := m.batch.ExecFailed(msg.Index, msg.Err); err == nil {
			log.ActionExecuted("batch", false, msg.Err.Error())
		}
		return m, nil
	}

	// Cursor blink and other component-internal messages.
	if m.editing {
		var cmd tea.Cmd
		m.editInput, cmd = m.editInput.Update(msg)
		return m, cmd
	}
	if m.transcript.Focused() {
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	// Typing modes swallow everything except their own exits.
	if m.editing {
		return m.handleEditKey(msg)
	}
	if m.tab == tabTranscript && m.transcript.Focused() {
		return m.handleTranscriptTyping(msg)
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "tab":
		m.tab = (m.tab + 1) % 2
		m.status = ""
		return m, nil
	}

	if m.tab == tabVoice {
		return m.handleVoiceKey(key)
	}
	return m.handleBatchKey(key)
}

func (m tuiModel) handleVoiceKey(key string) (tea.Model, tea.Cmd) {
	switch m.voice.Phase() {
	case workflow.Idle:
		if key == "r" {
			if err := m.voice.StartCapture(); err != nil {
				return m, nil
			}
			if err := m.rec.Begin(); err != nil {
				m.voice.CaptureFailed(err)
				log.Errorf("capture begin: %v", err)
				return m, nil
			}
			m.elapsed = 0
			log.Info("recording_start")
		}

	case workflow.Recording:
		if key == "r" || key == "s" || key == " " {
			token, err := m.voice.StopCapture()
			if err != nil {
				return m, nil
			}
			payload, ok, endErr := m.rec.End()
			log.Info("recording_stop")
			if endErr != nil || !ok {
				if endErr == nil {
					endErr = fmt.Errorf("no audio captured")
				}
				m.voice.InterpretFailed(token, endErr)
				return m, nil
			}
			return m, m.interpretAudioCmd(token, payload)
		}

	case workflow.Transcribing:
		if key == "e" {
			m.editing = true
			m.editInput.SetValue(m.voice.RawText())
			m.editInput.CursorEnd()
			return m, m.editInput.Focus()
		}

	case workflow.AwaitingConfirmation:
		switch key {
		case "y", "enter":
			action, err := m.voice.Confirm()
			if err != nil {
				return m, nil
			}
			return m, m.executeCmd(action)
		case "e":
			m.editing = true
			m.editInput.SetValue(m.voice.RawText())
			m.editInput.CursorEnd()
			return m, m.editInput.Focus()
		case "n", "esc":
			m.voice.Cancel()
			m.status = "cancelled"
		case "c":
			if err := clipboard.Copy(m.voice.RawText()); err == nil {
				m.status = "transcript copied"
			}
		}

	case workflow.Errored:
		if key == "enter" || key == "esc" {
			m.voice.Acknowledge()
			m.status = ""
		}
	}

	return m, nil
}

func (m tuiModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.editInput.Value())
		m.editing = false
		m.editInput.Blur()
		if text == "" || text == m.voice.RawText() {
			return m, nil
		}
		token, err := m.voice.Edit(text)
		if err != nil {
			return m, nil
		}
		return m, m.interpretTextCmd(token, text)
	case "esc":
		m.editing = false
		m.editInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m tuiModel) handleTranscriptTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.transcript.Blur()
		return m, nil
	case "ctrl+p":
		m.transcript.Blur()
		return m.beginParse()
	}

	var cmd tea.Cmd
	m.transcript, cmd = m.transcript.Update(msg)
	return m, cmd
}

func (m tuiModel) handleBatchKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "i":
		return m, m.transcript.Focus()
	case "v":
		text, err := clipboard.Read()
		if err != nil {
			m.status = "clipboard read failed"
			return m, nil
		}
		m.transcript.SetValue(text)
		m.status = "transcript pasted from clipboard"
		return m, nil
	case "p", "ctrl+p":
		return m.beginParse()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.batch.Len()-1 {
			m.cursor++
		}
	case "enter", "y":
		action, err := m.batch.BeginExecute(m.cursor)
		if err != nil {
			return m, nil
		}
		return m, m.executeEntryCmd(m.cursor, action)
	case "s":
		m.batch.Skip(m.cursor)
	case "f":
		m.batch.Fail(m.cursor)
	}
	return m, nil
}

func (m tuiModel) beginParse() (tea.Model, tea.Cmd) {
	token, err := m.batch.BeginParse(m.transcript.Value())
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.status = "parsing transcript..."
	return m, m.parseTranscriptCmd(token, m.transcript.Value())
}

func (m tuiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	header := titleStyle.Render("vira") + dimStyle.Render("  project: "+m.projectKey)
	b.WriteString(header + "\n\n")

	voiceTab, transcriptTab := tabStyle, tabStyle
	if m.tab == tabVoice {
		voiceTab = activeTab
	} else {
		transcriptTab = activeTab
	}
	b.WriteString(voiceTab.Render("Voice Command") + transcriptTab.Render("Meeting Transcript") + "\n\n")

	if m.tab == tabVoice {
		b.WriteString(m.viewVoice())
	} else {
		b.WriteString(m.viewBatch())
	}

	if m.status != "" {
		b.WriteString("\n" + dimStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render(m.helpLine()))
	return b.String()
}

func (m tuiModel) viewVoice() string {
	var b strings.Builder

	if m.editing {
		b.WriteString("Edit command text:\n")
		b.WriteString(m.editInput.View() + "\n")
		return b.String()
	}

	switch m.voice.Phase() {
	case workflow.Idle:
		b.WriteString(dimStyle.Render("Press r to record a command.") + "\n")

	case workflow.Recording:
		b.WriteString(recStyle.Render(fmt.Sprintf("● REC %.1fs", m.elapsed.Seconds())) + "\n")

	case workflow.Transcribing:
		b.WriteString("Interpreting... " + dimStyle.Render("(e to edit text)") + "\n")
		if text := m.voice.RawText(); text != "" {
			b.WriteString(dimStyle.Render("\""+text+"\"") + "\n")
		}

	case workflow.AwaitingConfirmation:
		b.WriteString("Recognized: " + "\"" + m.voice.RawText() + "\"\n\n")
		b.WriteString(m.renderAction(m.voice.Action()) + "\n")
		b.WriteString("\nConfirm this action? " + dimStyle.Render("y confirm · e edit · n cancel") + "\n")

	case workflow.Submitting:
		b.WriteString("Submitting action... \n")

	case workflow.Errored:
		b.WriteString(errorStyle.Render("Error: "+m.voice.ErrMessage()) + "\n")
		b.WriteString(dimStyle.Render("Press enter to dismiss.") + "\n")
	}

	return b.String()
}

func (m tuiModel) renderAction(a command.Action) string {
	lines := []string{titleStyle.Render(a.Label())}
	lines = append(lines, a.Describe()...)
	return actionStyle.Render(strings.Join(lines, "\n"))
}

func (m tuiModel) viewBatch() string {
	var b strings.Builder

	b.WriteString(m.transcript.View() + "\n\n")

	if m.batch.Phase() == workflow.Parsing {
		b.WriteString("Analyzing transcript...\n")
		return b.String()
	}

	if msg := m.batch.ErrMessage(); msg != "" {
		b.WriteString(errorStyle.Render("Parse error: "+msg) + "\n")
	}

	entries := m.batch.Entries()
	if len(entries) == 0 {
		return b.String()
	}

	b.WriteString("Identified actions:\n")
	for i, e := range entries {
		marker := "  "
		label := fmt.Sprintf("%s  %s", e.Action.Label(), strings.Join(e.Action.Describe(), " · "))
		status := statusColors[e.Status].Render("[" + e.Status.String() + "]")
		if e.Executing() {
			status = dimStyle.Render("[submitting]")
		}
		line := fmt.Sprintf("%s %s %s", marker, status, label)
		if i == m.cursor {
			line = selectedStyle.Render("▶ " + line[2:])
		}
		b.WriteString(line + "\n")
		if e.Err != "" && e.Status == workflow.Pending {
			b.WriteString("      " + errorStyle.Render(e.Err) + "\n")
		}
	}
	return b.String()
}

func (m tuiModel) helpLine() string {
	if m.editing {
		return "enter apply · esc discard"
	}
	if m.tab == tabTranscript && m.transcript.Focused() {
		return "ctrl+p parse · esc done typing"
	}
	if m.tab == tabTranscript {
		return "i type · v paste clipboard · p parse · ↑/↓ select · y execute · s skip · f mark failed · tab switch · q quit"
	}
	return "r record · tab switch · q quit"
}
