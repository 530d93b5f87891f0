package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveTokenRefresh_LabelsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(TokenRefreshesTotal.WithLabelValues("error"))
	ObserveTokenRefresh(errors.New("boom"))
	after := testutil.ToFloat64(TokenRefreshesTotal.WithLabelValues("error"))
	if after-before != 1 {
		t.Errorf("expected error counter to grow by 1, got %v", after-before)
	}

	before = testutil.ToFloat64(TokenRefreshesTotal.WithLabelValues("success"))
	ObserveTokenRefresh(nil)
	if testutil.ToFloat64(TokenRefreshesTotal.WithLabelValues("success"))-before != 1 {
		t.Error("expected success counter to grow by 1")
	}
}
