package usecases

import (
	"context"
	"fmt"
	"orderchat/internal/entities"
	"orderchat/internal/interfaces"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	GreetingText        = `👋 Hello! Type "show products", "add [product]", "show cart", "remove", or "checkout".`
	ProductAddedFormat  = "✅ %s added to cart."
	ProductNotFoundText = "❌ Product not found."
	CartShownText       = "🛒 Cart details shown."
	CartEmptyText       = "🛒 Your cart is empty."
	NotUnderstoodText   = "🤖 Sorry, I didn't understand that."
	FailureText         = "⚠️ Something went wrong. Please try again."

	DefaultTypingDelay = time.Second
	timestampLayout    = "03:04 PM"
)

// DefaultQuickReplies are offered with the greeting
func DefaultQuickReplies() []entities.QuickReply {
	return []entities.QuickReply{
		{ID: 1, Label: "show products"},
		{ID: 2, Label: "show cart"},
		{ID: 3, Label: "checkout"},
		{ID: 4, Label: "Need Help"},
	}
}

// AppendListener is called after every append with the new message and the
// quick replies active at that point. It runs on the appending goroutine.
type AppendListener func(msg entities.Message, replies []entities.QuickReply)

// UIState is presentational only; nothing here is persisted.
type UIState struct {
	Open       bool   `json:"open"`
	Fullscreen bool   `json:"fullscreen"`
	Input      string `json:"input"`
}

func (s UIState) ContainerClass() string {
	classes := "chat-container"
	if s.Open {
		classes += " open"
	}
	if s.Fullscreen {
		classes += " fullscreen"
	}
	return classes
}

func (s UIState) FullscreenIcon() string {
	if s.Fullscreen {
		return "utility:contract_alt"
	}
	return "utility:expand_alt"
}

// WidgetState is a point-in-time copy of a widget, safe to hand out.
type WidgetState struct {
	UIState
	Messages         []entities.Message     `json:"messages"`
	QuickReplies     []entities.QuickReply  `json:"quick_replies"`
	ShowQuickReplies bool                   `json:"show_quick_replies"`
	Cart             *entities.CartSnapshot `json:"cart"`
	BotTyping        bool                   `json:"bot_typing"`
	ContainerClass   string                 `json:"container_class"`
	FullscreenIcon   string                 `json:"fullscreen_icon"`
}

type WidgetOption func(*ChatWidget)

func WithTypingDelay(d time.Duration) WidgetOption {
	return func(w *ChatWidget) { w.typingDelay = d }
}

func WithClock(now func() time.Time) WidgetOption {
	return func(w *ChatWidget) { w.now = now }
}

func WithLogger(log zerolog.Logger) WidgetOption {
	return func(w *ChatWidget) { w.log = log }
}

// ChatWidget is one conversation with the order assistant: the message log,
// the active quick replies, the cached cart and the UI flags of a single
// session. Commands issued concurrently on the same widget are not serialized.
type ChatWidget struct {
	ownerID     string
	catalog     interfaces.CatalogService
	cart        interfaces.CartService
	typingDelay time.Duration
	now         func() time.Time
	log         zerolog.Logger

	mu           sync.RWMutex
	messages     []entities.Message
	quickReplies []entities.QuickReply
	cartSnapshot *entities.CartSnapshot
	ui           UIState
	typing       int
	tasks        map[*DelayedTask]struct{}
	closed       bool
	listeners    []AppendListener
}

func NewChatWidget(ownerID string, catalog interfaces.CatalogService, cart interfaces.CartService, opts ...WidgetOption) *ChatWidget {
	w := &ChatWidget{
		ownerID:      ownerID,
		catalog:      catalog,
		cart:         cart,
		typingDelay:  DefaultTypingDelay,
		now:          time.Now,
		log:          zerolog.Nop(),
		messages:     []entities.Message{},
		quickReplies: []entities.QuickReply{},
		tasks:        make(map[*DelayedTask]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With().Str("owner_id", ownerID).Logger()
	return w
}

func (w *ChatWidget) OwnerID() string {
	return w.ownerID
}

// Connect greets the user. Call once when the widget is first shown.
func (w *ChatWidget) Connect() {
	w.AppendBot(GreetingText, DefaultQuickReplies(), false)
}

// OnAppend registers a listener for new messages (scroll to end, delivery).
func (w *ChatWidget) OnAppend(l AppendListener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, l)
}

// ========================================
// Conversation log
// ========================================

func (w *ChatWidget) AppendUser(text string) entities.Message {
	msg := w.newMessage(text, false, entities.SenderUser)

	w.mu.Lock()
	w.messages = append(w.messages, msg)
	replies := cloneReplies(w.quickReplies)
	listeners := w.listeners
	w.mu.Unlock()

	notify(listeners, msg, replies)
	return msg
}

// AppendBot appends a bot message and makes replies the active quick-reply set.
func (w *ChatWidget) AppendBot(text string, replies []entities.QuickReply, isHTML bool) entities.Message {
	msg := w.newMessage(text, isHTML, entities.SenderBot)

	w.mu.Lock()
	w.messages = append(w.messages, msg)
	w.quickReplies = cloneReplies(replies)
	active := cloneReplies(w.quickReplies)
	listeners := w.listeners
	w.mu.Unlock()

	notify(listeners, msg, active)
	return msg
}

func (w *ChatWidget) newMessage(text string, isHTML bool, sender entities.Sender) entities.Message {
	return entities.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Text:      text,
		IsHTML:    isHTML,
		Sender:    sender,
		Timestamp: w.now().Format(timestampLayout),
	}
}

func notify(listeners []AppendListener, msg entities.Message, replies []entities.QuickReply) {
	for _, l := range listeners {
		l(msg, replies)
	}
}

func cloneReplies(replies []entities.QuickReply) []entities.QuickReply {
	out := make([]entities.QuickReply, len(replies))
	copy(out, replies)
	return out
}

// ========================================
// Input surface
// ========================================

func (w *ChatWidget) SetInput(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ui.Input = text
}

// ToggleChat opens or closes the chat. Fullscreen is always reset.
func (w *ChatWidget) ToggleChat() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ui.Open = !w.ui.Open
	w.ui.Fullscreen = false
}

func (w *ChatWidget) ToggleFullscreen() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ui.Fullscreen = !w.ui.Fullscreen
}

// HandleQuickReply behaves exactly like typing the reply's label and sending it.
func (w *ChatWidget) HandleQuickReply(ctx context.Context, reply entities.QuickReply) error {
	w.SetInput(reply.Label)
	return w.HandleSend(ctx)
}

// QuickReply looks up a reply in the active set
func (w *ChatWidget) QuickReply(id int) (entities.QuickReply, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, r := range w.quickReplies {
		if r.ID == id {
			return r, true
		}
	}
	return entities.QuickReply{}, false
}

// ========================================
// Read side
// ========================================

func (w *ChatWidget) Messages() []entities.Message {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]entities.Message, len(w.messages))
	copy(out, w.messages)
	return out
}

func (w *ChatWidget) QuickReplies() []entities.QuickReply {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return cloneReplies(w.quickReplies)
}

// Cart returns the cached cart, nil when unknown or empty
func (w *ChatWidget) Cart() *entities.CartSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cartSnapshot
}

func (w *ChatWidget) IsBotTyping() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.typing > 0
}

func (w *ChatWidget) UI() UIState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ui
}

func (w *ChatWidget) State() WidgetState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	messages := make([]entities.Message, len(w.messages))
	copy(messages, w.messages)
	return WidgetState{
		UIState:          w.ui,
		Messages:         messages,
		QuickReplies:     cloneReplies(w.quickReplies),
		ShowQuickReplies: len(w.quickReplies) > 0,
		Cart:             w.cartSnapshot,
		BotTyping:        w.typing > 0,
		ContainerClass:   w.ui.ContainerClass(),
		FullscreenIcon:   w.ui.FullscreenIcon(),
	}
}

func (w *ChatWidget) setCart(cart *entities.CartSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cartSnapshot = cart
}

// Close cancels pending delayed replies. The log stays readable.
func (w *ChatWidget) Close() {
	w.mu.Lock()
	w.closed = true
	pending := w.tasks
	w.tasks = make(map[*DelayedTask]struct{})
	w.mu.Unlock()

	for t := range pending {
		t.Cancel()
	}
}

// ========================================
// Command dispatch
// ========================================

// HandleSend consumes the current input. Empty input is ignored. Otherwise the
// input is logged as a user message and exactly one command runs to completion.
func (w *ChatWidget) HandleSend(ctx context.Context) error {
	w.mu.Lock()
	text := strings.TrimSpace(w.ui.Input)
	if text == "" {
		w.mu.Unlock()
		return nil
	}
	w.ui.Input = ""
	w.mu.Unlock()

	return w.Submit(ctx, text)
}

// Submit runs text as a command without going through the input field.
// Front-ends that receive whole messages (Telegram) use it so concurrent
// updates cannot overwrite each other's input.
func (w *ChatWidget) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	w.AppendUser(text)
	return w.execute(ctx, Classify(text))
}

func (w *ChatWidget) execute(ctx context.Context, cmd Command) error {
	log := w.log.With().Str("command", cmd.Kind.String()).Logger()
	log.Debug().Str("product", cmd.Product).Msg("dispatching")

	typing := w.startTyping()
	defer typing.stop()

	var err error
	switch cmd.Kind {
	case CommandShowProducts:
		err = w.showProducts(ctx, typing)
	case CommandAddItem:
		err = w.addItem(ctx, typing, cmd.Product)
	case CommandShowCart:
		err = w.showCart(ctx, typing)
	case CommandRemove:
		err = w.removeAll(ctx, typing)
	case CommandCheckout:
		err = w.checkout(ctx, typing)
	default:
		err = w.notUnderstood(ctx, typing)
	}
	if err == nil {
		return nil
	}

	typing.stop()
	if ctx.Err() != nil {
		log.Debug().Err(err).Msg("command abandoned")
		return fmt.Errorf("%s: %w", cmd.Kind, err)
	}
	log.Error().Err(err).Msg("command failed")
	w.AppendBot(FailureText, nil, false)
	return fmt.Errorf("%s: %w", cmd.Kind, err)
}

func (w *ChatWidget) showProducts(ctx context.Context, typing *typingGuard) error {
	products, err := w.catalog.ListCatalog(ctx)
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}
	table, err := RenderProductTable(products)
	if err != nil {
		return fmt.Errorf("render products: %w", err)
	}
	typing.stop()
	w.AppendBot(table, nil, true)
	return nil
}

func (w *ChatWidget) addItem(ctx context.Context, typing *typingGuard, name string) error {
	products, err := w.catalog.ListCatalog(ctx)
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}

	match := findProduct(products, name)
	if match == nil {
		typing.stop()
		w.AppendBot(ProductNotFoundText, nil, false)
		return nil
	}

	if err := w.cart.AddToCart(ctx, w.ownerID, match.ID); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	typing.stop()
	w.AppendBot(fmt.Sprintf(ProductAddedFormat, match.Name), nil, false)
	return w.refreshCart(ctx)
}

// findProduct returns the first product whose name equals name ignoring case
func findProduct(products []entities.Product, name string) *entities.Product {
	for i := range products {
		if strings.ToLower(products[i].Name) == name {
			return &products[i]
		}
	}
	return nil
}

func (w *ChatWidget) showCart(ctx context.Context, typing *typingGuard) error {
	if err := w.refreshCart(ctx); err != nil {
		return err
	}
	typing.stop()
	w.AppendBot(CartShownText, nil, false)
	return nil
}

func (w *ChatWidget) removeAll(ctx context.Context, typing *typingGuard) error {
	status, err := w.cart.RemoveAllItems(ctx, w.ownerID)
	if err != nil {
		return fmt.Errorf("remove items: %w", err)
	}
	typing.stop()
	w.AppendBot(status, nil, false)
	w.setCart(nil)
	return nil
}

func (w *ChatWidget) checkout(ctx context.Context, typing *typingGuard) error {
	status, err := w.cart.Checkout(ctx, w.ownerID)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	typing.stop()
	w.setCart(nil)
	w.AppendBot(status, nil, false)
	return nil
}

func (w *ChatWidget) notUnderstood(ctx context.Context, typing *typingGuard) error {
	task := w.schedule(w.typingDelay, func() {
		typing.stop()
		w.AppendBot(NotUnderstoodText, nil, false)
	})
	if task == nil {
		return nil
	}

	select {
	case <-task.Done():
		return nil
	case <-ctx.Done():
		if task.Cancel() {
			w.forget(task)
			return ctx.Err()
		}
		<-task.Done()
		return nil
	}
}

// refreshCart fetches the cart and shows it as a table, or says it is empty.
func (w *ChatWidget) refreshCart(ctx context.Context) error {
	cart, err := w.cart.GetCart(ctx, w.ownerID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if cart.IsEmpty() {
		w.setCart(nil)
		w.AppendBot(CartEmptyText, nil, false)
		return nil
	}

	table, err := RenderCartTable(cart)
	if err != nil {
		return fmt.Errorf("render cart: %w", err)
	}
	w.setCart(cart)
	w.AppendBot(table, nil, true)
	return nil
}

// schedule runs fn after d unless the widget is closed first. Returns nil
// when the widget is already closed.
func (w *ChatWidget) schedule(d time.Duration, fn func()) *DelayedTask {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}

	var task *DelayedTask
	task = AfterDelay(d, func() {
		fn()
		w.forget(task)
	})
	w.tasks[task] = struct{}{}
	return task
}

func (w *ChatWidget) forget(task *DelayedTask) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.tasks, task)
}

// ========================================
// Typing indicator
// ========================================

// typingGuard holds one unit of the typing counter until stop is called.
type typingGuard struct {
	w    *ChatWidget
	once sync.Once
}

func (w *ChatWidget) startTyping() *typingGuard {
	w.mu.Lock()
	w.typing++
	w.mu.Unlock()
	return &typingGuard{w: w}
}

func (g *typingGuard) stop() {
	g.once.Do(func() {
		g.w.mu.Lock()
		g.w.typing--
		g.w.mu.Unlock()
	})
}
