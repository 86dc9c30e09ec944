package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/jbridge/bridge"
	"github.com/wippyai/jbridge/jtype"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse and call the demo classes interactively",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if !isTerminal() {
			return errors.New("explore needs a terminal")
		}
		s, err := open()
		if err != nil {
			return err
		}
		defer s.Close()
		_, err = tea.NewProgram(newExploreModel(s.b), tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(exploreCmd)
}

type memberKind int

const (
	kindStatic memberKind = iota
	kindMethod
	kindStaticField
)

type memberInfo struct {
	kind   memberKind
	name   string
	label  string
	params []jtype.Type
}

type modelState int

const (
	stateSelectClass modelState = iota
	stateSelectMember
	stateInputArgs
	stateShowResult
)

type exploreModel struct {
	err      error
	b        *bridge.Bridge
	class    *bridge.Class
	instance *bridge.Instance
	result   string
	classes  []string
	members  []memberInfo
	inputs   []textinput.Model
	selected int
	member   int
	focusIdx int
	state    modelState
}

type classMsg struct {
	err     error
	class   *bridge.Class
	members []memberInfo
}

type callResultMsg struct {
	err    error
	result string
}

func newExploreModel(b *bridge.Bridge) *exploreModel {
	return &exploreModel{b: b, classes: demoClasses(), state: stateSelectClass}
}

func (m *exploreModel) Init() tea.Cmd {
	return nil
}

func (m *exploreModel) loadClass() tea.Msg {
	c, err := m.b.ImportClass(m.classes[m.selected])
	if err != nil {
		return classMsg{err: err}
	}
	d := c.Descriptor()
	var members []memberInfo
	for _, name := range d.StaticMethodNames() {
		for _, meth := range d.StaticMethods[name] {
			members = append(members, memberInfo{kind: kindStatic, name: name, label: meth.String(), params: meth.Params})
		}
	}
	for _, name := range d.MethodNames() {
		for _, meth := range d.Methods[name] {
			members = append(members, memberInfo{kind: kindMethod, name: name, label: meth.String(), params: meth.Params})
		}
	}
	for _, name := range d.StaticFieldNames() {
		members = append(members, memberInfo{kind: kindStaticField, name: name, label: d.StaticFields[name].String()})
	}
	return classMsg{class: c, members: members}
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateInputArgs && msg.String() == "q" {
				break
			}
			m.dropInstance()
			return m, tea.Quit

		case "up", "k":
			m.move(-1)

		case "down", "j":
			m.move(1)

		case "enter":
			switch m.state {
			case stateSelectClass:
				return m, m.loadClass
			case stateSelectMember:
				if len(m.members) == 0 {
					break
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callMember
				}
				m.state = stateInputArgs
			case stateInputArgs:
				return m, m.callMember
			case stateShowResult:
				m.state = stateSelectMember
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateSelectMember:
				m.dropInstance()
				m.state = stateSelectClass
				m.members = nil
				m.err = nil
			case stateInputArgs:
				m.state = stateSelectMember
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectMember
				m.result = ""
				m.err = nil
			}
		}

	case classMsg:
		m.err = msg.err
		if msg.err == nil {
			m.class = msg.class
			m.members = msg.members
			m.member = 0
			m.state = stateSelectMember
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m *exploreModel) move(delta int) {
	switch m.state {
	case stateSelectClass:
		m.selected = clamp(m.selected+delta, len(m.classes))
	case stateSelectMember:
		m.member = clamp(m.member+delta, len(m.members))
	}
}

func clamp(i, n int) int {
	if i < 0 || n == 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m *exploreModel) dropInstance() {
	if m.instance != nil {
		m.instance.Release()
		m.instance = nil
	}
}

func (m *exploreModel) prepareInputs() {
	mi := m.members[m.member]
	m.inputs = make([]textinput.Model, len(mi.params))
	for i, p := range mi.params {
		ti := textinput.New()
		ti.Placeholder = p.Name()
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *exploreModel) callMember() tea.Msg {
	mi := m.members[m.member]
	args := make([]any, len(m.inputs))
	for i, input := range m.inputs {
		args[i] = parseTyped(input.Value(), mi.params[i])
	}

	var (
		v   any
		err error
	)
	switch mi.kind {
	case kindStatic:
		v, err = m.class.Call(mi.name, args...)
	case kindStaticField:
		v, err = m.class.Get(mi.name)
	case kindMethod:
		if m.instance == nil {
			// Instance methods run on an object made with the no-argument constructor.
			m.instance, err = m.class.New()
			if err != nil {
				return callResultMsg{err: fmt.Errorf("construct %s: %w", m.class.Name(), err)}
			}
		}
		v, err = m.instance.Call(mi.name, args...)
	}
	if err != nil {
		return callResultMsg{err: err}
	}
	out := format(v)
	if inst, ok := v.(*bridge.Instance); ok {
		inst.Release()
	}
	return callResultMsg{result: out}
}

func (m *exploreModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("jbridge"))
	if m.class != nil && m.state != stateSelectClass {
		b.WriteString(" ")
		b.WriteString(m.class.Name())
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectClass:
		b.WriteString("Select a class:\n\n")
		for i, c := range m.classes {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + c))
			} else {
				b.WriteString("  " + c)
			}
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter open • q quit"))

	case stateSelectMember:
		b.WriteString("Select a member:\n\n")
		for i, mi := range m.members {
			if i == m.member {
				b.WriteString(selectedStyle.Render("> " + mi.label))
			} else {
				b.WriteString("  " + funcStyle.Render(mi.label))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • esc back • q quit"))

	case stateInputArgs:
		mi := m.members[m.member]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(mi.label)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(mi.params[i].Name()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		mi := m.members[m.member]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(mi.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}
