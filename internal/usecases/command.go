package usecases

import "strings"

type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandShowProducts
	CommandAddItem
	CommandShowCart
	CommandRemove
	CommandCheckout
)

func (k CommandKind) String() string {
	switch k {
	case CommandShowProducts:
		return "show_products"
	case CommandAddItem:
		return "add_item"
	case CommandShowCart:
		return "show_cart"
	case CommandRemove:
		return "remove"
	case CommandCheckout:
		return "checkout"
	default:
		return "unknown"
	}
}

// Command is a classified user input. Product is only set for CommandAddItem
// and is already lower-cased.
type Command struct {
	Kind    CommandKind
	Product string
}

const addPrefix = "add "

// Classify maps raw chat input to a command.
// Priority: 1. show products → 2. add <name> → 3. show cart → 4. remove → 5. checkout → 6. unknown
func Classify(input string) Command {
	content := strings.ToLower(strings.TrimSpace(input))

	switch {
	case content == "show products":
		return Command{Kind: CommandShowProducts}
	case strings.HasPrefix(content, addPrefix):
		name := strings.TrimSpace(strings.TrimPrefix(content, addPrefix))
		return Command{Kind: CommandAddItem, Product: name}
	case content == "show cart":
		return Command{Kind: CommandShowCart}
	case content == "remove":
		return Command{Kind: CommandRemove}
	case content == "checkout":
		return Command{Kind: CommandCheckout}
	}
	return Command{Kind: CommandUnknown}
}
