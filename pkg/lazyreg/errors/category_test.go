package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type netTimeout struct{}

func (netTimeout) Error() string   { return "i/o timeout" }
func (netTimeout) Timeout() bool   { return true }
func (netTimeout) Temporary() bool { return true }

var _ net.Error = netTimeout{}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "transient", CategoryTransient.String())
	assert.Equal(t, "permanent", CategoryPermanent.String())
	assert.Equal(t, "unknown", Category(99).String())
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryPermanent},
		{"plain", errors.New("bad driver"), CategoryPermanent},
		{"transient", Transient(errors.New("locked"), "ping"), CategoryTransient},
		{"wrapped transient", fmt.Errorf("open: %w", Transient(errors.New("locked"), "ping")), CategoryTransient},
		{"permanent", Permanent(errors.New("no such host"), "dial"), CategoryPermanent},
		{"timeout error", &TimeoutError{Op: "dial", Duration: "5s"}, CategoryTransient},
		{"deadline", context.DeadlineExceeded, CategoryTransient},
		{"canceled", context.Canceled, CategoryPermanent},
		{"net timeout", &net.OpError{Op: "dial", Err: netTimeout{}}, CategoryTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.err))
			assert.Equal(t, tt.want == CategoryTransient, IsRetryable(tt.err))
		})
	}
}

func TestCategorizedError(t *testing.T) {
	cause := errors.New("database is locked")
	err := &CategorizedError{Err: cause, Category: CategoryTransient, Attempts: 2, Op: "ping"}

	assert.Equal(t, "ping: database is locked (category: transient, attempts: 2)", err.Error())
	assert.ErrorIs(t, err, cause)

	err.Op = ""
	assert.Equal(t, "database is locked (category: transient, attempts: 2)", err.Error())
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{Op: "connect", Duration: (5 * time.Second).String()}
	assert.Equal(t, "timeout after 5s: connect", err.Error())
}
