// Package tui is the terminal storefront: a predictive search pane and a cart
// pane rendered through the optimistic overlay.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/optimistic"
	"storefront/internal/predictive"
	"storefront/internal/storefrontapi"
)

// API is the subset of the storefront client the UI drives.
type API interface {
	ActiveOrNewCart(ctx context.Context) (*domain.Cart, error)
	MutateCart(ctx context.Context, cartID string, action optimistic.Action) optimistic.Result
	PredictiveSearch(ctx context.Context, term string, limit int) (domain.PredictiveResult, error)
	Products(ctx context.Context, limit int) (*storefrontapi.ProductPage, error)
}

type pane int

const (
	searchPane pane = iota
	cartPane
)

type editMode int

const (
	editNone editMode = iota
	editDiscounts
	editGiftCard
)

// DefaultDebounce is the delay between the last keystroke and the lookup.
const DefaultDebounce = 150 * time.Millisecond

const catalogLimit = 20

type Config struct {
	Debounce    time.Duration
	SearchLimit int
	Logger      *zap.Logger
}

type (
	cartLoadedMsg struct {
		cart *domain.Cart
		err  error
	}
	productsLoadedMsg struct {
		products []storefrontapi.Product
		err      error
	}
	debounceMsg struct {
		req predictive.Request
	}
	searchResultMsg struct {
		gen    uint64
		result domain.PredictiveResult
		err    error
	}
	mutationDoneMsg struct {
		ticket optimistic.Ticket
		result optimistic.Result
	}
)

// listing is a product row the user can add to the cart.
type listing struct {
	ID        string
	Title     string
	Handle    string
	Image     string
	Price     domain.Money
	Available bool
}

func (l listing) merchandise() *domain.Merchandise {
	return &domain.Merchandise{ID: l.ID, Title: l.Title, ProductHandle: l.Handle, Image: l.Image, Price: l.Price}
}

type Model struct {
	ctx      context.Context
	api      API
	logger   *zap.Logger
	debounce time.Duration
	styles   styles

	input   textinput.Model
	session *predictive.Session
	catalog []listing
	cursor  int

	overlay    *optimistic.Overlay
	cartID     string
	cartCursor int

	codeInput textinput.Model
	editing   editMode

	focus  pane
	status string
	width  int
	height int
}

func New(ctx context.Context, api API, cfg Config) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	input := textinput.New()
	input.Placeholder = "Search products"
	input.Prompt = "/ "
	input.Focus()

	code := textinput.New()
	code.Prompt = "> "

	return Model{
		ctx:       ctx,
		api:       api,
		logger:    logging.OrNop(cfg.Logger),
		debounce:  cfg.Debounce,
		styles:    defaultStyles(),
		input:     input,
		session:   predictive.NewSession(cfg.SearchLimit),
		overlay:   optimistic.New(domain.Cart{}),
		codeInput: code,
		focus:     searchPane,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadCart(), m.loadProducts())
}

func (m Model) loadCart() tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		cart, err := api.ActiveOrNewCart(ctx)
		return cartLoadedMsg{cart: cart, err: err}
	}
}

func (m Model) loadProducts() tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		page, err := api.Products(ctx, catalogLimit)
		if err != nil {
			return productsLoadedMsg{err: err}
		}
		return productsLoadedMsg{products: page.Products}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case cartLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("load cart", zap.Error(msg.err))
			m.status = "Could not load cart: " + msg.err.Error()
			return m, nil
		}
		m.cartID = msg.cart.ID
		m.overlay.Replace(*msg.cart)
		return m, nil

	case productsLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("load products", zap.Error(msg.err))
			m.status = "Could not load catalog: " + msg.err.Error()
			return m, nil
		}
		m.catalog = m.catalog[:0]
		for _, p := range msg.products {
			m.catalog = append(m.catalog, listing{ID: p.ID, Title: p.Title, Handle: p.Handle, Image: p.FeaturedImage, Price: p.Price, Available: p.AvailableForSale})
		}
		return m, nil

	case debounceMsg:
		if !m.session.Debounced(msg.req.Generation) {
			return m, nil
		}
		return m, m.lookup(msg.req)

	case searchResultMsg:
		if msg.err != nil {
			if m.session.OnError(msg.gen, msg.err) {
				m.logger.Debug("predictive search failed", zap.Uint64("generation", msg.gen), zap.Error(msg.err))
			}
			return m, nil
		}
		if m.session.OnResponse(msg.gen, msg.result) {
			m.cursor = 0
		}
		return m, nil

	case mutationDoneMsg:
		if m.overlay.Settle(msg.ticket, msg.result) {
			m.clampCartCursor()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	if m.editing != editNone {
		m.codeInput, cmd = m.codeInput.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "tab":
		return m.switchPane()
	}
	if m.editing != editNone {
		return m.handleEditKey(msg)
	}
	if m.focus == searchPane {
		return m.handleSearchKey(msg)
	}
	return m.handleCartKey(msg)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.overlay.Close()
	m.session.Close()
	return m, tea.Quit
}

func (m Model) switchPane() (tea.Model, tea.Cmd) {
	m.status = ""
	if m.focus == searchPane {
		m.focus = cartPane
		m.input.Blur()
		m.session.Blur()
		return m, nil
	}
	m.focus = searchPane
	cmd := m.input.Focus()
	if req, ok := m.session.Focus(); ok {
		return m, tea.Batch(cmd, m.lookup(req))
	}
	return m, cmd
}

// scheduleLookup arms a debounce tick for the generation just started.
func (m Model) scheduleLookup(req predictive.Request) tea.Cmd {
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return debounceMsg{req: req}
	})
}

func (m Model) lookup(req predictive.Request) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		result, err := api.PredictiveSearch(ctx, req.Term, req.Limit)
		return searchResultMsg{gen: req.Generation, result: result, err: err}
	}
}

// enqueue records the action on the overlay and returns the request command.
func (m *Model) enqueue(action optimistic.Action) tea.Cmd {
	if m.cartID == "" {
		m.status = "Cart is still loading"
		return nil
	}
	ticket, err := m.overlay.Enqueue(m.ctx, action)
	if err != nil {
		m.status = describe(err)
		return nil
	}
	m.status = ""
	api, cartID := m.api, m.cartID
	return func() tea.Msg {
		return mutationDoneMsg{ticket: ticket, result: api.MutateCart(ticket.Ctx, cartID, ticket.Action)}
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, optimistic.ErrLineOptimistic):
		return "That item is still being added"
	case errors.Is(err, optimistic.ErrQuantityBelowMinimum):
		return "Press x to remove the item"
	default:
		return err.Error()
	}
}

func (m Model) View() string {
	header := m.styles.Title.Render("storefront") + "  " + m.styles.Help.Render("tab switch pane · esc close search · ctrl+c quit")

	search, cart := m.styles.Pane, m.styles.Pane
	if m.focus == searchPane {
		search = m.styles.ActivePane
	} else {
		cart = m.styles.ActivePane
	}
	width := m.width/2 - 4
	if width > 10 {
		search = search.Width(width)
		cart = cart.Width(width)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, search.Render(m.searchView()), cart.Render(m.cartView()))

	out := header + "\n" + body
	if m.status != "" {
		out += "\n" + m.styles.Error.Render(m.status)
	}
	return out + "\n"
}
