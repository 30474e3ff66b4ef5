package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tayloree/agency-catalog/internal/browse"
	"github.com/tayloree/agency-catalog/internal/catalog"
	"github.com/tayloree/agency-catalog/internal/display"
	"github.com/tayloree/agency-catalog/internal/filter"
)

const (
	minTUIWidth   = 92
	minTUIHeight  = 24
	tuiWindowStep = 50
)

var (
	tuiHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	tuiMetaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tuiHintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tuiChipStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	tuiTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	tuiMutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	tuiSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	tuiErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

// tuiLoadConfig carries what the initial load needs. prepare runs after the
// catalog is loaded and applies command line filters to the session.
type tuiLoadConfig struct {
	ctx     context.Context
	session *browse.Session
	prepare func(context.Context, *browse.Session) error
}

type tuiDataLoadedMsg struct{}

type tuiDataLoadErrMsg struct {
	err error
}

type tuiScopeLoadedMsg struct {
	res browse.ScopeResult
}

type tuiFocus int

const (
	tuiFocusList tuiFocus = iota
	tuiFocusDetail
)

type tuiMode int

const (
	tuiModeBrowse tuiMode = iota
	tuiModeSearch
	tuiModePickCategory
	tuiModePickSubCategory
)

type tuiGroupItem struct {
	name    string
	count   int
	ordinal int
}

func (g tuiGroupItem) FilterValue() string { return strings.ToLower(g.name) }
func (g tuiGroupItem) Title() string       { return fmt.Sprintf("%d. %s", g.ordinal, g.name) }
func (g tuiGroupItem) Description() string {
	return fmt.Sprintf("Section header • %d projects", g.count)
}

type tuiProjectItem struct {
	project     catalog.Item
	group       string
	title       string
	description string
	filterValue string
}

func (p tuiProjectItem) FilterValue() string { return p.filterValue }
func (p tuiProjectItem) Title() string       { return p.title }
func (p tuiProjectItem) Description() string { return p.description }

// tuiMoreItem closes a windowed list; selecting it shows the next page.
type tuiMoreItem struct {
	remaining int
}

func (m tuiMoreItem) FilterValue() string { return "" }
func (m tuiMoreItem) Title() string       { return "Show more…" }
func (m tuiMoreItem) Description() string { return fmt.Sprintf("%d more projects", m.remaining) }

// tuiChoiceItem is one entry of the category or subcategory picker.
type tuiChoiceItem struct {
	id       string
	label    string
	count    int
	selected bool
}

func (c tuiChoiceItem) FilterValue() string { return strings.ToLower(c.label) }
func (c tuiChoiceItem) Title() string {
	mark := "[ ]"
	if c.selected {
		mark = "[x]"
	}
	return mark + " " + c.label
}
func (c tuiChoiceItem) Description() string {
	if c.id == filter.AllCategories {
		return "Clear this facet"
	}
	return fmt.Sprintf("%d projects", c.count)
}

type catalogTUIModel struct {
	cfg      tuiLoadConfig
	session  *browse.Session
	loading  bool
	spinner  spinner.Model
	loadErr  error
	fatalErr error

	scopeLoading bool
	scopeErr     error

	view   browse.View
	window int

	list   list.Model
	detail viewport.Model
	picker list.Model
	search textinput.Model

	mode         tuiMode
	searchBefore string
	focus        tuiFocus
	showHelp     bool
	selectedID   string

	groupStarts []int

	width, height   int
	bodyHeight      int
	listPaneWidth   int
	detailPaneWidth int
	tooSmall        bool
}

func newLoadingCatalogTUIModel(cfg tuiLoadConfig) catalogTUIModel {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(1)

	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Projects"
	lst.SetStatusBarItemName("item", "items")
	lst.SetShowStatusBar(true)
	lst.SetFilteringEnabled(false)
	lst.SetShowHelp(false)
	lst.SetShowPagination(true)
	lst.DisableQuitKeybindings()

	picker := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	picker.SetShowHelp(false)
	picker.SetFilteringEnabled(true)
	picker.DisableQuitKeybindings()

	detail := viewport.New(0, 0)
	detail.KeyMap.PageDown.SetKeys("f", "pgdown")
	detail.KeyMap.PageUp.SetKeys("b", "pgup")
	detail.KeyMap.HalfPageDown.SetKeys("d")
	detail.KeyMap.HalfPageUp.SetKeys("u")

	search := textinput.New()
	search.Prompt = "search: "
	search.Placeholder = "title, description or tag"
	search.CharLimit = 120

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	return catalogTUIModel{
		cfg:     cfg,
		session: cfg.session,
		loading: true,
		spinner: spin,
		window:  tuiWindowStep,
		list:    lst,
		picker:  picker,
		detail:  detail,
		search:  search,
		focus:   tuiFocusList,
	}
}

func loadTUIDataCmd(cfg tuiLoadConfig) tea.Cmd {
	return func() tea.Msg {
		if err := cfg.session.Load(cfg.ctx); err != nil {
			return tuiDataLoadErrMsg{err: err}
		}
		if cfg.prepare != nil {
			if err := cfg.prepare(cfg.ctx, cfg.session); err != nil {
				return tuiDataLoadErrMsg{err: err}
			}
		}
		return tuiDataLoadedMsg{}
	}
}

// beginScope issues a subcategory ticket for the current category selection.
// Only the latest ticket's result is installed.
func (m *catalogTUIModel) beginScope() tea.Cmd {
	ticket := m.session.BeginScope(m.cfg.ctx)
	m.scopeLoading = true
	return func() tea.Msg {
		return tuiScopeLoadedMsg{res: ticket.Fetch()}
	}
}

func (m catalogTUIModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadTUIDataCmd(m.cfg))
}

func (m catalogTUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tuiDataLoadedMsg:
		m.loading = false
		m.loadErr = nil
		m.search.SetValue(m.session.State().Query())
		m.applyCurrentFilters(true)
		m.resize()
		return m, m.beginScope()

	case tuiDataLoadErrMsg:
		m.loading = false
		m.loadErr = msg.err
		return m, nil

	case tuiScopeLoadedMsg:
		if !m.session.ApplyScope(msg.res) {
			return m, nil
		}
		m.scopeLoading = false
		m.scopeErr = msg.res.Err
		if m.mode == tuiModePickSubCategory {
			m.refreshPicker()
		}
		m.refreshDetail(false)
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	keyMsg, isKey := msg.(tea.KeyMsg)
	if isKey && keyMsg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.loading {
		if isKey && keyMsg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.loadErr != nil {
		if !isKey {
			return m, nil
		}
		switch keyMsg.String() {
		case "q", "esc":
			m.fatalErr = m.loadErr
			return m, tea.Quit
		case "r":
			m.loading = true
			m.loadErr = nil
			return m, tea.Batch(m.spinner.Tick, loadTUIDataCmd(m.cfg))
		}
		return m, nil
	}

	if !isKey {
		var cmd tea.Cmd
		if m.mode == tuiModeSearch {
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch m.mode {
	case tuiModeSearch:
		return m.updateSearch(keyMsg)
	case tuiModePickCategory, tuiModePickSubCategory:
		return m.updatePicker(keyMsg)
	}
	return m.updateBrowse(keyMsg)
}

func (m catalogTUIModel) updateBrowse(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.session.State()

	switch key := keyMsg.String(); key {
	case "q":
		return m, tea.Quit
	case "tab":
		if m.focus == tuiFocusList {
			m.focus = tuiFocusDetail
		} else {
			m.focus = tuiFocusList
		}
		return m, nil
	case "esc":
		if m.focus == tuiFocusDetail {
			m.focus = tuiFocusList
		}
		return m, nil
	case "?":
		m.showHelp = !m.showHelp
		m.resize()
		return m, nil
	case "/":
		m.mode = tuiModeSearch
		m.searchBefore = st.Query()
		return m, m.search.Focus()
	case "c":
		m.openPicker(tuiModePickCategory)
		return m, nil
	case "s":
		m.openPicker(tuiModePickSubCategory)
		return m, nil
	case "C":
		before := st.CategoryIDs()
		st.ToggleCategoryMultiSelect()
		if !equalIDs(before, st.CategoryIDs()) {
			return m, m.categoryChanged()
		}
		m.applyCurrentFilters(false)
		return m, nil
	case "S":
		st.ToggleSubCategoryMultiSelect()
		m.applyCurrentFilters(false)
		return m, nil
	case "x", "backspace":
		return m, m.removeLastChip()
	case "X":
		st.ClearAll()
		m.search.SetValue("")
		return m, m.categoryChanged()
	case "m":
		m.showMore()
		return m, nil
	case "r":
		if m.scopeErr != nil {
			m.scopeErr = nil
			return m, m.beginScope()
		}
		return m, nil
	case "enter":
		if _, ok := m.list.SelectedItem().(tuiMoreItem); ok {
			m.showMore()
			return m, nil
		}
	case "]":
		m.jumpSection(1)
		return m, nil
	case "[":
		m.jumpSection(-1)
		return m, nil
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			m.jumpToSection(int(key[0] - '1'))
			return m, nil
		}
	}

	if m.focus == tuiFocusDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(keyMsg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(keyMsg)
	m.refreshDetail(false)
	return m, cmd
}

// updateSearch filters live as the query is typed. Enter keeps the query,
// esc restores the one in effect before the search started.
func (m catalogTUIModel) updateSearch(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.session.State()
	switch keyMsg.String() {
	case "enter":
		m.mode = tuiModeBrowse
		m.search.Blur()
		return m, nil
	case "esc":
		m.mode = tuiModeBrowse
		m.search.Blur()
		m.search.SetValue(m.searchBefore)
		st.SetQuery(m.searchBefore)
		m.window = tuiWindowStep
		m.applyCurrentFilters(false)
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(keyMsg)
	if st.Query() != strings.TrimSpace(m.search.Value()) {
		st.SetQuery(m.search.Value())
		m.window = tuiWindowStep
		m.applyCurrentFilters(false)
	}
	return m, cmd
}

func (m catalogTUIModel) updatePicker(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(keyMsg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "esc", "q":
		if m.picker.IsFiltered() {
			m.picker.ResetFilter()
			return m, nil
		}
		m.mode = tuiModeBrowse
		return m, nil
	case "enter", " ":
		choice, ok := m.picker.SelectedItem().(tuiChoiceItem)
		if !ok {
			return m, nil
		}
		cmd := m.choose(choice.id)
		if !m.multiSelectActive() || choice.id == filter.AllCategories {
			m.mode = tuiModeBrowse
		} else {
			m.refreshPicker()
		}
		return m, cmd
	case "m":
		if m.mode == tuiModePickCategory {
			before := m.session.State().CategoryIDs()
			m.session.State().ToggleCategoryMultiSelect()
			m.refreshPicker()
			if !equalIDs(before, m.session.State().CategoryIDs()) {
				return m, m.categoryChanged()
			}
			m.applyCurrentFilters(false)
			return m, nil
		}
		m.session.State().ToggleSubCategoryMultiSelect()
		m.refreshPicker()
		m.applyCurrentFilters(false)
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(keyMsg)
	return m, cmd
}

func (m *catalogTUIModel) multiSelectActive() bool {
	if m.mode == tuiModePickCategory {
		return m.session.State().CategoryMultiSelect()
	}
	return m.session.State().SubCategoryMultiSelect()
}

// choose applies a picker selection to the filter state.
func (m *catalogTUIModel) choose(id string) tea.Cmd {
	st := m.session.State()
	if m.mode == tuiModePickCategory {
		st.SelectCategory(id)
		return m.categoryChanged()
	}
	st.SelectSubCategory(id)
	m.window = tuiWindowStep
	m.applyCurrentFilters(false)
	return nil
}

// categoryChanged refreshes the list and reloads the subcategory scope.
func (m *catalogTUIModel) categoryChanged() tea.Cmd {
	m.window = tuiWindowStep
	m.applyCurrentFilters(false)
	return m.beginScope()
}

func (m *catalogTUIModel) removeLastChip() tea.Cmd {
	chips := display.Chips(m.view, m.session.Taxonomy())
	if len(chips) == 0 {
		return nil
	}
	st := m.session.State()
	last := chips[len(chips)-1]
	switch last.Kind {
	case display.ChipCategory:
		st.RemoveCategory(last.ID)
		return m.categoryChanged()
	case display.ChipSubCategory:
		st.RemoveSubCategory(last.ID)
	case display.ChipQuery:
		st.SetQuery("")
		m.search.SetValue("")
	}
	m.window = tuiWindowStep
	m.applyCurrentFilters(false)
	return nil
}

func (m *catalogTUIModel) showMore() {
	if len(m.view.VisibleItems) >= m.view.Total {
		return
	}
	m.window += tuiWindowStep
	m.applyCurrentFilters(false)
}

func (m *catalogTUIModel) openPicker(mode tuiMode) {
	m.mode = mode
	m.picker.ResetFilter()
	m.refreshPicker()
	m.picker.Select(0)
}

func (m *catalogTUIModel) refreshPicker() {
	st := m.session.State()
	tax := m.session.Taxonomy()
	counts := filter.Facets(m.session.Items())

	var items []list.Item
	if m.mode == tuiModePickCategory {
		m.picker.Title = "Categories" + modeSuffix(st.CategoryMultiSelect())
		items = append(items, tuiChoiceItem{id: filter.AllCategories, label: "All categories", selected: len(st.CategoryIDs()) == 0})
		for _, c := range tax.Categories() {
			items = append(items, tuiChoiceItem{
				id:       c.ID,
				label:    display.CategoryName(tax, c.ID),
				count:    counts.Categories[c.ID],
				selected: st.HasCategory(c.ID),
			})
		}
	} else {
		title := "Subcategories" + modeSuffix(st.SubCategoryMultiSelect())
		if m.scopeLoading {
			title += " (loading…)"
		}
		m.picker.Title = title
		items = append(items, tuiChoiceItem{id: filter.AllCategories, label: "All subcategories", selected: len(st.SubCategoryIDs()) == 0})
		for _, s := range filter.Scope(tax, st) {
			items = append(items, tuiChoiceItem{
				id:       s.ID,
				label:    s.Name,
				count:    counts.SubCategories[s.ID],
				selected: st.HasSubCategory(s.ID),
			})
		}
	}

	idx := m.picker.Index()
	m.picker.SetItems(items)
	if idx < len(items) {
		m.picker.Select(idx)
	}
}

func modeSuffix(multi bool) string {
	if multi {
		return " • multi-select"
	}
	return " • single-select"
}

func (m catalogTUIModel) View() string {
	if m.loading {
		return m.loadingView()
	}
	if m.loadErr != nil {
		return m.errorView()
	}
	if m.width == 0 || m.height == 0 {
		return tuiMetaStyle.Render("Loading interface...")
	}
	if m.tooSmall {
		return lipgloss.NewStyle().
			Padding(1, 2).
			Render(
				fmt.Sprintf(
					"Terminal too small (%dx%d).\nResize to at least %dx%d for the two-pane catalog browser.",
					m.width, m.height, minTUIWidth, minTUIHeight,
				),
			)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.headerView(),
		m.bodyView(),
		m.footerView(),
	)
}

func (m catalogTUIModel) loadingView() string {
	width := m.width
	if width == 0 {
		width = 80
	}
	skeletonStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	lines := []string{
		tuiHeaderStyle.Render("catalog tui"),
		tuiMetaStyle.Render("Preparing interactive interface..."),
		"",
		fmt.Sprintf("%s Fetching categories and projects", m.spinner.View()),
		tuiHintStyle.Render("Tip: press q to cancel."),
		"",
		skeletonStyle.Render("┌──────────────────────────────┬─────────────────────────────────────────┐"),
		skeletonStyle.Render("│  Loading project list...     │  Loading detail panel...               │"),
		skeletonStyle.Render("│  • categories                │  • category and subcategories          │"),
		skeletonStyle.Render("│  • subcategory scope         │  • wrapped description text            │"),
		skeletonStyle.Render("└──────────────────────────────┴─────────────────────────────────────────┘"),
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func (m catalogTUIModel) errorView() string {
	lines := []string{
		tuiHeaderStyle.Render("catalog tui"),
		"",
		tuiErrorStyle.Render("Could not load the catalog."),
		wrapText(m.loadErr.Error(), 72),
		"",
		tuiHintStyle.Render("r retry • q quit"),
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

func (m *catalogTUIModel) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	if m.loading {
		return
	}

	m.tooSmall = m.width < minTUIWidth || m.height < minTUIHeight
	if m.tooSmall {
		return
	}

	headerH := 4
	footerH := 2
	if m.showHelp {
		footerH = 7
	}
	m.bodyHeight = maxInt(8, m.height-headerH-footerH-1)

	listWidth := maxInt(40, int(float64(m.width)*0.43))
	if listWidth > m.width-42 {
		listWidth = m.width / 2
	}
	detailWidth := m.width - listWidth - 1
	if detailWidth < 36 {
		detailWidth = 36
		listWidth = m.width - detailWidth - 1
	}

	m.listPaneWidth = listWidth
	m.detailPaneWidth = detailWidth

	listInnerWidth := maxInt(24, listWidth-4)
	detailInnerWidth := maxInt(24, detailWidth-4)
	panelInnerHeight := maxInt(6, m.bodyHeight-2)

	m.list.SetSize(listInnerWidth, panelInnerHeight)
	m.picker.SetSize(listInnerWidth, panelInnerHeight)
	m.detail.Width = detailInnerWidth
	m.detail.Height = panelInnerHeight
	m.refreshDetail(false)
}

func (m catalogTUIModel) headerView() string {
	focus := "list"
	if m.focus == tuiFocusDetail {
		focus = "detail"
	}

	top := fmt.Sprintf("catalog tui  |  session %s", shortID(m.session.ID))
	counts := fmt.Sprintf(
		"projects: %d shown / %d matching / %d total  |  categories%s  |  subcategories%s  |  focus: %s",
		len(m.view.VisibleItems), m.view.Total, len(m.session.Items()),
		modeSuffix(m.view.CategoryMultiSelect), modeSuffix(m.view.SubCategoryMultiSelect), focus,
	)

	chips := display.Chips(m.view, m.session.Taxonomy())
	chipLine := tuiMutedStyle.Render("filters: none")
	if len(chips) > 0 {
		chipLine = tuiMutedStyle.Render("filters: ") + tuiChipStyle.Render(display.RenderChips(chips))
	}
	if m.scopeErr != nil {
		chipLine += "  " + tuiErrorStyle.Render("subcategories failed to load (r retry)")
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(tuiHeaderStyle.Render(top) + "\n" + tuiMetaStyle.Render(counts) + "\n" + chipLine)
}

func (m catalogTUIModel) bodyView() string {
	listBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("241")).
		Padding(0, 1)
	detailBorder := listBorder

	if m.focus == tuiFocusList {
		listBorder = listBorder.BorderForeground(lipgloss.Color("86"))
	} else {
		detailBorder = detailBorder.BorderForeground(lipgloss.Color("86"))
	}

	leftContent := m.list.View()
	switch m.mode {
	case tuiModePickCategory, tuiModePickSubCategory:
		leftContent = m.picker.View()
	case tuiModeSearch:
		leftContent = m.search.View() + "\n\n" + m.list.View()
	}

	left := listBorder.
		Width(m.listPaneWidth).
		Height(m.bodyHeight).
		Render(leftContent)
	right := detailBorder.
		Width(m.detailPaneWidth).
		Height(m.bodyHeight).
		Render(m.detail.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m catalogTUIModel) footerView() string {
	base := "Tab switch pane • / search • c category • s subcategory • C/S multi-select • x remove chip • X clear all • m more • [/] section jump • q quit"
	switch {
	case m.mode == tuiModeSearch:
		base = "Search: type to filter • enter keep • esc cancel"
	case m.mode == tuiModePickCategory || m.mode == tuiModePickSubCategory:
		base = "Picker: ↑/↓ move • enter/space select • m toggle multi-select • / filter • esc close"
	case m.focus == tuiFocusDetail:
		base = "Detail: j/k or ↑/↓ scroll • u/d half-page • b/f page • esc list • ? help • q quit"
	}

	if !m.showHelp {
		return lipgloss.NewStyle().Padding(0, 1).Render(tuiHintStyle.Render(base))
	}

	lines := []string{
		"Key Help",
		"facets: c category picker • s subcategory picker • C category multi-select • S subcategory multi-select",
		"filters: / search • x or backspace remove last chip • X clear all • m show more",
		"group jumps: ] next section • [ previous section • 1..9 jump to numbered section header",
		"global: tab switch pane • esc list • r retry failed load • ? toggle help • q quit • ctrl+c force quit",
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		Render(tuiHintStyle.Render(strings.Join(lines, "\n")))
}

func (m *catalogTUIModel) applyCurrentFilters(resetSelection bool) {
	currentID := m.selectedID
	m.view = m.session.View(m.window)

	items, starts := buildGroupedListItems(m.view.VisibleItems, m.session.Taxonomy())
	if remaining := m.view.Total - len(m.view.VisibleItems); remaining > 0 {
		items = append(items, tuiMoreItem{remaining: remaining})
	}
	m.groupStarts = starts

	m.list.Title = fmt.Sprintf("Projects • %d matching", m.view.Total)
	m.list.SetItems(items)

	target := -1
	if !resetSelection && currentID != "" {
		target = findItemIndexByID(items, currentID)
	}
	if target < 0 {
		target = firstProjectItemIndex(items)
	}
	if target < 0 && len(items) > 0 {
		target = 0
	}
	if target >= 0 {
		m.list.Select(target)
	}

	m.refreshDetail(true)
}

func (m *catalogTUIModel) refreshDetail(resetScroll bool) {
	var content string
	nextID := ""

	if selected := m.list.SelectedItem(); selected != nil {
		switch item := selected.(type) {
		case tuiProjectItem:
			content = renderProjectDetailContent(item.project, m.session.Taxonomy(), m.detail.Width)
			nextID = stableIDForProject(item.project)
		case tuiGroupItem:
			content = m.renderGroupDetail(item)
			nextID = stableIDForGroup(item.name)
		case tuiMoreItem:
			content = fmt.Sprintf("%d more projects match the current filters.\n\nPress enter or m to show them.", item.remaining)
			nextID = "more"
		}
	}
	if content == "" {
		content = "No projects match the current filters.\n\nPress x to remove the last filter or X to clear all."
	}

	if resetScroll || nextID != m.selectedID {
		m.detail.GotoTop()
	}
	m.selectedID = nextID
	m.detail.SetContent(content)
}

func (m catalogTUIModel) renderGroupDetail(group tuiGroupItem) string {
	preview := m.groupPreviewTitles(group.name, 5)

	lines := []string{
		tuiSectionStyle.Render(fmt.Sprintf("Section %d: %s", group.ordinal, group.name)),
		tuiMetaStyle.Render(fmt.Sprintf("%d projects in this section", group.count)),
		"",
		tuiMetaStyle.Render("Jump keys:"),
		"- `]` next section, `[` previous section",
		"- `1..9` jump directly to section number",
	}
	if len(preview) > 0 {
		lines = append(lines, "")
		lines = append(lines, tuiMetaStyle.Render("Preview:"))
		for _, title := range preview {
			lines = append(lines, "• "+title)
		}
	}

	return strings.Join(lines, "\n")
}

func (m catalogTUIModel) groupPreviewTitles(group string, max int) []string {
	out := make([]string, 0, max)
	for _, item := range m.list.Items() {
		project, ok := item.(tuiProjectItem)
		if !ok || project.group != group {
			continue
		}
		out = append(out, project.title)
		if len(out) >= max {
			break
		}
	}
	return out
}

func (m *catalogTUIModel) jumpToSection(index int) {
	if index < 0 || index >= len(m.groupStarts) {
		return
	}

	target := firstProjectIndexFrom(m.list.Items(), m.groupStarts[index])
	if target < 0 {
		target = m.groupStarts[index]
	}
	m.list.Select(target)
	m.refreshDetail(true)
}

func (m *catalogTUIModel) jumpSection(delta int) {
	if len(m.groupStarts) == 0 {
		return
	}

	current := m.currentSectionIndex()
	if current < 0 {
		current = 0
	}
	next := current + delta
	if next < 0 {
		next = len(m.groupStarts) - 1
	}
	if next >= len(m.groupStarts) {
		next = 0
	}
	m.jumpToSection(next)
}

func (m catalogTUIModel) currentSectionIndex() int {
	if len(m.groupStarts) == 0 {
		return -1
	}
	cursor := m.list.GlobalIndex()
	current := 0
	for i, start := range m.groupStarts {
		if start <= cursor {
			current = i
			continue
		}
		break
	}
	return current
}

// buildGroupedListItems groups projects under their category, largest group
// first, keeping project order within each group.
func buildGroupedListItems(projects []catalog.Item, tax *catalog.Taxonomy) (items []list.Item, starts []int) {
	if len(projects) == 0 {
		return nil, nil
	}

	groups := map[string][]catalog.Item{}
	for _, p := range projects {
		group := projectGroupLabel(p, tax)
		groups[group] = append(groups[group], p)
	}

	type groupMeta struct {
		name  string
		count int
	}

	metas := make([]groupMeta, 0, len(groups))
	for name, members := range groups {
		metas = append(metas, groupMeta{name: name, count: len(members)})
	}
	sort.Slice(metas, func(i, j int) bool {
		if metas[i].count != metas[j].count {
			return metas[i].count > metas[j].count
		}
		return metas[i].name < metas[j].name
	})

	items = make([]list.Item, 0, len(projects)+len(metas))
	starts = make([]int, 0, len(metas))
	for idx, meta := range metas {
		starts = append(starts, len(items))

		items = append(items, tuiGroupItem{
			name:    meta.name,
			count:   meta.count,
			ordinal: idx + 1,
		})
		for _, p := range groups[meta.name] {
			items = append(items, buildTUIProjectItem(p, meta.name, tax))
		}
	}

	return items, starts
}

func projectGroupLabel(item catalog.Item, tax *catalog.Taxonomy) string {
	if item.CategoryID == "" {
		return "Uncategorized"
	}
	return display.CategoryName(tax, item.CategoryID)
}

func projectTitle(item catalog.Item) string {
	if title := filter.CleanText(item.Title); title != "" {
		return title
	}
	return "Untitled project"
}

func buildTUIProjectItem(item catalog.Item, group string, tax *catalog.Taxonomy) tuiProjectItem {
	title := projectTitle(item)

	subs := make([]string, 0, len(item.SubCategoryIDs))
	for _, id := range item.SubCategoryIDs {
		subs = append(subs, display.SubCategoryName(tax, id))
	}

	descParts := []string{}
	if len(subs) > 0 {
		descParts = append(descParts, strings.Join(subs, ", "))
	}
	if len(item.Tags) > 0 {
		descParts = append(descParts, "#"+strings.Join(item.Tags, " #"))
	}
	if len(descParts) == 0 {
		descParts = append(descParts, group)
	}

	filterTokens := []string{
		title,
		filter.CleanText(item.ShortDescription),
		strings.Join(item.Tags, " "),
		strings.Join(subs, " "),
		group,
	}

	return tuiProjectItem{
		project:     item,
		group:       group,
		title:       title,
		description: strings.Join(descParts, "  •  "),
		filterValue: strings.ToLower(strings.Join(filterTokens, " ")),
	}
}

func renderProjectDetailContent(item catalog.Item, tax *catalog.Taxonomy, width int) string {
	maxWidth := maxInt(24, width)

	desc := filter.CleanText(item.ShortDescription)
	if desc == "" {
		desc = "No description provided."
	}

	lines := []string{
		tuiTitleStyle.Render(wrapText(projectTitle(item), maxWidth)),
	}

	category := "Uncategorized"
	if item.CategoryID != "" {
		category = display.CategoryName(tax, item.CategoryID)
	}
	lines = append(lines, tuiMetaStyle.Render(wrapText("category: "+category, maxWidth)))

	if len(item.SubCategoryIDs) > 0 {
		subs := make([]string, 0, len(item.SubCategoryIDs))
		for _, id := range item.SubCategoryIDs {
			subs = append(subs, display.SubCategoryName(tax, id))
		}
		lines = append(lines, tuiMetaStyle.Render(wrapText("subcategories: "+strings.Join(subs, ", "), maxWidth)))
	}

	lines = append(lines, "")
	lines = append(lines, tuiMetaStyle.Render("Description:"))
	lines = append(lines, wrapText(desc, maxWidth))

	if len(item.Tags) > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%s %s", tuiMetaStyle.Render("Tags:"), tuiChipStyle.Render(strings.Join(item.Tags, ", "))))
	}

	lines = append(lines, "")
	lines = append(lines, tuiMutedStyle.Render("id: "+item.ID))

	return strings.Join(lines, "\n")
}

func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if width < 12 {
		width = 12
	}

	line := words[0]
	lines := make([]string, 0, len(words)/6+1)
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func findItemIndexByID(items []list.Item, stableID string) int {
	for i, item := range items {
		if stableIDForItem(item) == stableID {
			return i
		}
	}
	return -1
}

func firstProjectItemIndex(items []list.Item) int {
	return firstProjectIndexFrom(items, 0)
}

func firstProjectIndexFrom(items []list.Item, start int) int {
	for i := start; i < len(items); i++ {
		if _, ok := items[i].(tuiProjectItem); ok {
			return i
		}
	}
	return -1
}

func stableIDForItem(item list.Item) string {
	switch value := item.(type) {
	case tuiProjectItem:
		return stableIDForProject(value.project)
	case tuiGroupItem:
		return stableIDForGroup(value.name)
	case tuiMoreItem:
		return "more"
	default:
		return ""
	}
}

func stableIDForProject(item catalog.Item) string {
	return "project:" + item.ID
}

func stableIDForGroup(group string) string {
	return "group:" + strings.ToLower(strings.TrimSpace(group))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
