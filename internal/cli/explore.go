package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treescope/pkg/config"
	"github.com/matzehuels/treescope/pkg/explorer"
	"github.com/matzehuels/treescope/pkg/tree"
	"github.com/matzehuels/treescope/pkg/viewport"
)

// Explorer styles
var (
	exploreStatusFound = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	exploreStatusMiss  = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	exploreError       = lipgloss.NewStyle().Foreground(colorRed)
	exploreDim         = lipgloss.NewStyle().Foreground(colorDim)
	exploreHeader      = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

type exploreOpts struct {
	format  string
	sample  bool
	watch   bool
	noCache bool
}

// exploreCommand creates the interactive explorer.
func (c *CLI) exploreCommand() *cobra.Command {
	var opts exploreOpts

	cmd := &cobra.Command{
		Use:   "explore [file]",
		Short: "Browse a document's tree and search it interactively",
		Long: `Open an interactive explorer on a document.

Type a path query and press enter to highlight and focus the node it names.
Press esc to leave the query box; then f fits the whole tree, + and - zoom,
e exports a PNG, s loads the sample document and q quits.

With --watch the document is reloaded whenever it changes on disk. A reload
that fails to parse keeps the previous tree and shows the error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				opts.sample = true
			}
			return c.runExplore(cmd.Context(), cfg, path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "input-format", "i", "", "input format: json, yaml or toml (default: from extension)")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "start with the built-in sample document")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload the file when it changes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	addLayoutFlags(cmd)
	addCacheFlags(cmd)

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, cfg *config.Config, path string, opts exploreOpts) error {
	if opts.watch && (opts.sample || path == "-") {
		return fmt.Errorf("--watch needs a file")
	}

	// The terminal belongs to the UI; keep the session quiet.
	quiet := log.New(io.Discard)

	runner := c.newRunner(ctx, cfg, opts.noCache)
	defer runner.Close()

	cam := viewport.NewCamera(viewport.WithLogger(quiet))
	sess := explorer.New(runner, cam,
		explorer.WithLogger(quiet),
		explorer.WithPipelineOptions(cfg.PipelineOptions()),
	)

	if opts.sample {
		_ = sess.LoadSample(ctx)
	} else {
		in, err := readInput(path, opts.format, false)
		if err != nil {
			return err
		}
		// A parse error is shown in the UI rather than aborting.
		_ = sess.Load(ctx, in.data, in.format, in.source)
	}

	m := newExploreModel(ctx, sess, cam)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if opts.watch {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := sess.Watch(watchCtx, path, func(err error) { p.Send(reloadMsg{err: err}) })
			if err != nil {
				p.Send(reloadMsg{err: err})
			}
		}()
	}

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(exploreModel); ok && fm.exported != "" {
		printSuccess("Exported")
		printFile(fm.exported)
	}
	return nil
}

// =============================================================================
// exploreModel - Interactive tree explorer
// =============================================================================

// reloadMsg reports a file-watch reload.
type reloadMsg struct{ err error }

// exportedMsg reports a finished export.
type exportedMsg struct {
	file string
	err  error
}

// exploreModel is the bubbletea model of the explorer. The session holds
// the document state; the model only holds what is on screen.
type exploreModel struct {
	ctx      context.Context
	sess     *explorer.Session
	cam      *viewport.Camera
	query    textinput.Model
	notice   string // transient feedback such as export results
	exported string // last exported file
	width    int
	height   int
}

func newExploreModel(ctx context.Context, sess *explorer.Session, cam *viewport.Camera) exploreModel {
	ti := textinput.New()
	ti.Prompt = "query › "
	ti.Placeholder = explorer.DefaultQuery
	ti.SetValue(explorer.DefaultQuery)
	ti.CharLimit = 512
	ti.Width = 48
	ti.Focus()

	return exploreModel{
		ctx:    ctx,
		sess:   sess,
		cam:    cam,
		query:  ti,
		width:  100,
		height: 30,
	}
}

func (m exploreModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case reloadMsg:
		m.notice = ""
		if msg.err == nil {
			m.notice = "reloaded"
		}
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.notice = "export failed: " + msg.err.Error()
		} else {
			m.exported = msg.file
			m.notice = "exported " + msg.file
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.query.Focused() {
			return m.updateQuery(msg)
		}
		return m.updateCommand(msg)
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	return m, cmd
}

// updateQuery handles keys while the query box has focus.
func (m exploreModel) updateQuery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.notice = ""
		m.sess.Search(m.query.Value())
		return m, nil
	case tea.KeyEsc:
		m.query.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	return m, cmd
}

// updateCommand handles single-key commands while the query box is blurred.
func (m exploreModel) updateCommand(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "/", "i", "enter":
		return m, m.query.Focus()
	case "f":
		m.sess.FitAll()
	case "+", "=":
		m.sess.ZoomIn()
	case "-", "_":
		m.sess.ZoomOut()
	case "s":
		m.notice = ""
		_ = m.sess.LoadSample(m.ctx)
	case "e":
		m.notice = "exporting..."
		return m, m.export()
	}
	return m, nil
}

func (m exploreModel) export() tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		file, err := sess.Export(ctx, "")
		return exportedMsg{file: file, err: err}
	}
}

func (m exploreModel) View() string {
	snap := m.sess.Snapshot()
	var b strings.Builder

	title := "treescope"
	if snap.Source != "" {
		title += "  " + snap.Source
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(m.query.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine(snap))
	b.WriteString("\n")
	if n, ok := m.highlighted(); ok {
		b.WriteString(exploreDim.Render("selected ") + kindStyle(n.Kind).Render(n.Label) + exploreDim.Render("  "+n.Path))
	}
	b.WriteString("\n\n")

	if snap.Graph == nil {
		b.WriteString(exploreDim.Render("  nothing loaded"))
	} else {
		b.WriteString(m.nodeTable(snap))
	}
	b.WriteString("\n\n")
	b.WriteString(exploreDim.Render(m.help()))
	return b.String()
}

func (m exploreModel) statusLine(snap explorer.Snapshot) string {
	var parts []string
	switch snap.Status {
	case explorer.StatusFound:
		parts = append(parts, exploreStatusFound.Render(snap.Status.String()))
	case explorer.StatusNotFound:
		parts = append(parts, exploreStatusMiss.Render(snap.Status.String()))
	}
	if snap.LoadErr != nil {
		parts = append(parts, exploreError.Render("load failed: "+snap.LoadErr.Error()))
	}
	if m.notice != "" {
		parts = append(parts, exploreDim.Render(m.notice))
	}
	if snap.Graph != nil {
		st := m.cam.State()
		parts = append(parts, exploreDim.Render(fmt.Sprintf("%d nodes · zoom %.0f%%", snap.Graph.Len(), st.Zoom*100)))
	}
	return strings.Join(parts, exploreDim.Render("  ·  "))
}

// nodeTable lists the nodes inside the camera's visible area.
func (m exploreModel) nodeTable(snap explorer.Snapshot) string {
	nodes := m.cam.VisibleNodes()
	rows := m.height - 12
	if rows < 5 {
		rows = 5
	}
	more := 0
	if len(nodes) > rows {
		more = len(nodes) - rows
		nodes = nodes[:rows]
	}

	data := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		marker := "  "
		if n.ID == snap.Highlight {
			marker = "▸ "
		}
		data = append(data, []string{
			marker,
			strings.Repeat("  ", n.Depth) + n.Label,
			n.Path,
			fmt.Sprintf("%.0f,%.0f", n.Position.X, n.Position.Y),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Path", "Position").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return exploreHeader
			}
			if row < 0 || row >= len(nodes) {
				return lipgloss.NewStyle()
			}
			n := nodes[row]
			switch col {
			case 1:
				s := kindStyle(n.Kind)
				if n.ID == snap.Highlight {
					s = s.Bold(true).Underline(true)
				}
				return s
			case 2, 3:
				return exploreDim
			}
			return lipgloss.NewStyle().Foreground(colorCyan)
		})

	out := t.Render()
	if more > 0 {
		out += "\n" + exploreDim.Render(fmt.Sprintf("  … %d more in view", more))
	}
	return out
}

func (m exploreModel) help() string {
	if m.query.Focused() {
		return "enter search  esc commands  ctrl+c quit"
	}
	return "/ query  f fit  +/- zoom  e export  s sample  q quit"
}

// highlighted returns the highlighted node, if any.
func (m exploreModel) highlighted() (tree.Node, bool) {
	snap := m.sess.Snapshot()
	if snap.Graph == nil || snap.Highlight == tree.NoNode {
		return tree.Node{}, false
	}
	return snap.Graph.Node(snap.Highlight)
}
