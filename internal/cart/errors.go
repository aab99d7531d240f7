package cart

import "errors"

var (
	// ErrUserNotFound is returned when the cart owner does not exist.
	ErrUserNotFound = errors.New("cart: user not found")
	// ErrServer hides unexpected failures from callers.
	ErrServer = errors.New("cart: server error")
	// ErrFilmNotFound is returned when the film to enter does not exist.
	ErrFilmNotFound = errors.New("cart: film not found")
	// ErrAlreadyInCart is returned when the film is already entered in a requested category.
	ErrAlreadyInCart = errors.New("cart: film already in cart for category")
	// ErrInvalidInput is returned for malformed requests or unknown fee schedules.
	ErrInvalidInput = errors.New("cart: invalid input")
	// ErrProductNotFound is returned for unknown membership products.
	ErrProductNotFound = errors.New("cart: product not found")
	// ErrItemNotInCart is returned when removing a line the user does not own.
	ErrItemNotInCart = errors.New("cart: item not in cart")
)

// isClientError reports whether err is a sentinel a caller can act on.
func isClientError(err error) bool {
	for _, target := range []error{ErrUserNotFound, ErrFilmNotFound, ErrAlreadyInCart, ErrInvalidInput, ErrProductNotFound, ErrItemNotInCart} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
