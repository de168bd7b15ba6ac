package usecases

import (
	"context"
	"fmt"
	"orderchat/internal/entities"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWidget(catalog *fakeCatalog, cart *fakeCart, opts ...WidgetOption) *ChatWidget {
	opts = append([]WidgetOption{WithTypingDelay(10 * time.Millisecond)}, opts...)
	return NewChatWidget("owner-1", catalog, cart, opts...)
}

func send(t *testing.T, w *ChatWidget, text string) error {
	t.Helper()
	w.SetInput(text)
	return w.HandleSend(context.Background())
}

func texts(msgs []entities.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

// =============================================================================
// SEND / DISPATCH
// =============================================================================

func TestHandleSend_EmptyInputIsNoop(t *testing.T) {
	catalog := sampleCatalog()
	w := newTestWidget(catalog, &fakeCart{})

	require.NoError(t, send(t, w, "   \t "))

	state := w.State()
	assert.Empty(t, state.Messages)
	assert.Equal(t, "   \t ", state.Input, "input is left untouched")
	assert.False(t, state.BotTyping)
	assert.Zero(t, catalog.calls)
}

func TestHandleSend_ShowProducts(t *testing.T) {
	w := newTestWidget(sampleCatalog(), &fakeCart{})
	w.Connect()

	require.NoError(t, send(t, w, "  Show Products "))

	msgs := w.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, entities.SenderUser, msgs[1].Sender)
	assert.Equal(t, "Show Products", msgs[1].Text)
	assert.True(t, msgs[2].IsHTML)
	assert.Contains(t, msgs[2].Text, ">Milk</td>")
	assert.Empty(t, w.QuickReplies(), "table reply clears quick replies")
	assert.Empty(t, w.UI().Input)
	assert.False(t, w.IsBotTyping())
}

func TestHandleSend_AddKnownProduct(t *testing.T) {
	cart := &fakeCart{cart: sampleCart()}
	w := newTestWidget(sampleCatalog(), cart)

	require.NoError(t, send(t, w, "add MILK"))

	assert.Equal(t, []string{"owner-1/P-1"}, cart.added)
	msgs := w.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "add MILK", msgs[0].Text)
	assert.Equal(t, "✅ Milk added to cart.", msgs[1].Text)
	assert.True(t, msgs[2].IsHTML)
	assert.Contains(t, msgs[2].Text, "Unit Price")
	assert.Equal(t, sampleCart(), w.Cart())
}

func TestHandleSend_AddUnknownProduct(t *testing.T) {
	cart := &fakeCart{cart: sampleCart()}
	w := newTestWidget(sampleCatalog(), cart)

	require.NoError(t, send(t, w, "add unknown-item"))

	assert.Empty(t, cart.added)
	assert.Equal(t, []string{"add unknown-item", ProductNotFoundText}, texts(w.Messages()))
	assert.Nil(t, w.Cart())
}

func TestHandleSend_AddRequiresExactName(t *testing.T) {
	cart := &fakeCart{}
	w := newTestWidget(sampleCatalog(), cart)

	require.NoError(t, send(t, w, "add mil"))

	assert.Empty(t, cart.added)
	assert.Equal(t, ProductNotFoundText, w.Messages()[1].Text)
}

func TestHandleSend_ShowCartEmpty(t *testing.T) {
	for name, snapshot := range map[string]*entities.CartSnapshot{
		"nil":   nil,
		"empty": {Items: []entities.CartItem{}},
	} {
		t.Run(name, func(t *testing.T) {
			w := newTestWidget(sampleCatalog(), &fakeCart{cart: snapshot})

			require.NoError(t, send(t, w, "show cart"))

			assert.Nil(t, w.Cart())
			assert.Equal(t, []string{"show cart", CartEmptyText, CartShownText}, texts(w.Messages()))
		})
	}
}

func TestHandleSend_ShowCartWithItems(t *testing.T) {
	w := newTestWidget(sampleCatalog(), &fakeCart{cart: sampleCart()})

	require.NoError(t, send(t, w, "show cart"))

	msgs := w.Messages()
	require.Len(t, msgs, 3)
	assert.True(t, msgs[1].IsHTML)
	assert.Equal(t, CartShownText, msgs[2].Text)
	assert.NotNil(t, w.Cart())
}

func TestHandleSend_RemoveClearsSnapshot(t *testing.T) {
	for _, status := range []string{"🗑️ All items removed from your cart.", ""} {
		cart := &fakeCart{cart: sampleCart(), removeStatus: status}
		w := newTestWidget(sampleCatalog(), cart)
		require.NoError(t, send(t, w, "show cart"))
		require.NotNil(t, w.Cart())

		require.NoError(t, send(t, w, "REMOVE"))

		assert.Nil(t, w.Cart())
		assert.Equal(t, 1, cart.removeCalls)
		msgs := w.Messages()
		assert.Equal(t, status, msgs[len(msgs)-1].Text)
	}
}

func TestHandleSend_Checkout(t *testing.T) {
	cart := &fakeCart{cart: sampleCart()}
	w := newTestWidget(sampleCatalog(), cart)
	require.NoError(t, send(t, w, "show cart"))

	require.NoError(t, send(t, w, "checkout"))

	assert.Nil(t, w.Cart())
	assert.Equal(t, 1, cart.checkoutCall)
	msgs := w.Messages()
	assert.Equal(t, "Order placed.", msgs[len(msgs)-1].Text)
}

func TestHandleSend_ExactlyOneBranch(t *testing.T) {
	cart := &fakeCart{cart: sampleCart()}
	catalog := sampleCatalog()
	w := newTestWidget(catalog, cart)

	require.NoError(t, send(t, w, "add show cart"))

	assert.Equal(t, 1, catalog.calls, "add branch lists the catalog once")
	assert.Zero(t, cart.removeCalls)
	assert.Zero(t, cart.checkoutCall)
	assert.Equal(t, []string{"add show cart", ProductNotFoundText}, texts(w.Messages()))
}

func TestHandleSend_Unrecognized(t *testing.T) {
	catalog := sampleCatalog()
	w := newTestWidget(catalog, &fakeCart{}, WithTypingDelay(50*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- send(t, w, "hello there") }()

	require.Eventually(t, w.IsBotTyping, time.Second, time.Millisecond)
	require.NoError(t, <-done)

	assert.False(t, w.IsBotTyping())
	assert.Equal(t, []string{"hello there", NotUnderstoodText}, texts(w.Messages()))
	assert.Empty(t, w.QuickReplies())
	assert.Zero(t, catalog.calls)
}

func TestHandleSend_UnrecognizedCancelledByContext(t *testing.T) {
	w := newTestWidget(sampleCatalog(), &fakeCart{}, WithTypingDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		w.SetInput("???")
		done <- w.HandleSend(ctx)
	}()
	require.Eventually(t, w.IsBotTyping, time.Second, time.Millisecond)
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, w.IsBotTyping())
	assert.Equal(t, []string{"???"}, texts(w.Messages()))
}

func TestClose_CancelsPendingReply(t *testing.T) {
	w := newTestWidget(sampleCatalog(), &fakeCart{}, WithTypingDelay(time.Hour))

	done := make(chan error, 1)
	go func() { done <- send(t, w, "what?") }()
	require.Eventually(t, w.IsBotTyping, time.Second, time.Millisecond)

	w.Close()

	require.NoError(t, <-done)
	assert.False(t, w.IsBotTyping())
	assert.Len(t, w.Messages(), 1)
}

func TestHandleSend_RemoteFailure(t *testing.T) {
	catalog := &fakeCatalog{err: errBackend}
	w := newTestWidget(catalog, &fakeCart{})

	err := send(t, w, "show products")

	require.ErrorIs(t, err, errBackend)
	assert.False(t, w.IsBotTyping(), "typing flag is cleared on failure")
	msgs := w.Messages()
	assert.Equal(t, FailureText, msgs[len(msgs)-1].Text)
}

func TestHandleSend_CartFailureAfterAdd(t *testing.T) {
	cart := &fakeCart{err: errBackend}
	w := newTestWidget(sampleCatalog(), cart)

	err := send(t, w, "add bread")

	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, []string{"add bread", FailureText}, texts(w.Messages()))
	assert.Nil(t, w.Cart())
}

func TestHandleSend_ConcurrentCommands(t *testing.T) {
	w := newTestWidget(sampleCatalog(), &fakeCart{cart: sampleCart()})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.HandleQuickReply(context.Background(), entities.QuickReply{ID: 2, Label: "show cart"})
		}()
	}
	wg.Wait()

	assert.Len(t, w.Messages(), 30)
	assert.False(t, w.IsBotTyping())
}

// =============================================================================
// LOG / QUICK REPLIES / UI STATE
// =============================================================================

func TestConversationLog_AppendOrder(t *testing.T) {
	w := newTestWidget(sampleCatalog(), &fakeCart{})
	last := []entities.QuickReply{{ID: 9, Label: "later"}}

	for i := 0; i < 5; i++ {
		w.AppendUser(fmt.Sprintf("u%d", i))
		w.AppendBot(fmt.Sprintf("b%d", i), []entities.QuickReply{{ID: i, Label: "x"}}, false)
	}
	w.AppendBot("final", last, false)
	w.AppendUser("after")

	msgs := w.Messages()
	require.Len(t, msgs, 12)
	assert.Equal(t, "u0", msgs[0].Text)
	assert.Equal(t, "b4", msgs[9].Text)
	assert.Equal(t, "after", msgs[11].Text)
	assert.Equal(t, last, w.QuickReplies(), "user messages keep the last bot set")

	seen := map[string]bool{}
	for _, m := range msgs {
		assert.False(t, seen[m.ID], "ids are unique")
		seen[m.ID] = true
	}
}

func TestAppendBot_Timestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC)
	w := newTestWidget(sampleCatalog(), &fakeCart{}, WithClock(func() time.Time { return at }))

	msg := w.AppendBot("hi", nil, false)

	assert.Equal(t, "02:05 PM", msg.Timestamp)
	assert.Equal(t, "Assistant", msg.AltText())
}

func TestConnect_GreetsWithQuickReplies(t *testing.T) {
	w := newTestWidget(sampleCatalog(), &fakeCart{})
	w.Connect()

	state := w.State()
	require.Len(t, state.Messages, 1)
	assert.Equal(t, GreetingText, state.Messages[0].Text)
	assert.True(t, state.ShowQuickReplies)
	assert.Equal(t, DefaultQuickReplies(), state.QuickReplies)

	reply, ok := w.QuickReply(2)
	require.True(t, ok)
	require.NoError(t, w.HandleQuickReply(context.Background(), reply))
	assert.Equal(t, "show cart", w.Messages()[1].Text)

	_, ok = w.QuickReply(2)
	assert.False(t, ok, "bot reply replaced the greeting chips")
}

func TestOnAppend_NotifiesEveryMessage(t *testing.T) {
	w := newTestWidget(sampleCatalog(), &fakeCart{})
	var got []entities.Message
	w.OnAppend(func(msg entities.Message, replies []entities.QuickReply) {
		got = append(got, msg)
	})

	require.NoError(t, send(t, w, "show products"))

	assert.Equal(t, w.Messages(), got)
}

func TestToggle_StateMachine(t *testing.T) {
	w := newTestWidget(sampleCatalog(), &fakeCart{})

	w.ToggleChat()
	assert.Equal(t, "chat-container open", w.State().ContainerClass)

	w.ToggleFullscreen()
	state := w.State()
	assert.True(t, state.Fullscreen)
	assert.Equal(t, "chat-container open fullscreen", state.ContainerClass)
	assert.Equal(t, "utility:contract_alt", state.FullscreenIcon)

	w.ToggleFullscreen()
	assert.False(t, w.UI().Fullscreen)
	assert.True(t, w.UI().Open)

	w.ToggleFullscreen()
	w.ToggleChat()
	ui := w.UI()
	assert.False(t, ui.Open)
	assert.False(t, ui.Fullscreen, "closing resets fullscreen")
	assert.Equal(t, "utility:expand_alt", w.State().FullscreenIcon)
}

func TestSubmit_BypassesInput(t *testing.T) {
	w := newTestWidget(sampleCatalog(), &fakeCart{})
	w.SetInput("draft")

	require.NoError(t, w.Submit(context.Background(), " add milk "))
	require.NoError(t, w.Submit(context.Background(), "  "))

	assert.Equal(t, "draft", w.UI().Input)
	assert.Equal(t, []string{"add milk", "✅ Milk added to cart.", CartEmptyText}, texts(w.Messages()))
}
