package telemetry

import (
	"testing"

	"github.com/autolaborcenter/pm1-driver/internal/chassis"
)

func TestEventLabelNamesEachEventVariant(t *testing.T) {
	cases := []struct {
		ev   chassis.Event
		want string
	}{
		{chassis.Battery{Percent: 50}, "battery"},
		{chassis.PowerSwitch{On: true}, "power_switch"},
		{chassis.Wheels{Left: 1, Right: 2}, "wheels"},
		{chassis.Physical{}, "physical"},
	}
	for _, c := range cases {
		if got := EventLabel(c.ev); got != c.want {
			t.Errorf("EventLabel(%T) = %q, want %q", c.ev, got, c.want)
		}
	}
}

func TestEventLabelNilEventIsEmpty(t *testing.T) {
	if got := EventLabel(nil); got != "" {
		t.Errorf("EventLabel(nil) = %q, want empty", got)
	}
}
