package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrDuplicateRegion,
		ErrLastRegion,
		ErrDuplicateConnection,
		ErrSelfConnection,
		ErrCrossRegionConnection,
		ErrNoOriginOrDestination,
		ErrNoConnections,
		ErrPathNotFound,
		ErrServiceUnavailable,
		ErrResetFailed,
		ErrCancelled,
		ErrInvalidCoordinate,
		ErrInvalidConfig,
		ErrBadRequest,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestErrorString(t *testing.T) {
	e := Errorf(ErrPathNotFound, "no path from %s to %s", "O", "D")
	if e.Error() != "E_PATH_NOT_FOUND: no path from O to D" {
		t.Fatalf("unexpected error string: %q", e.Error())
	}
	if CodeOf(e) != ErrPathNotFound {
		t.Fatalf("CodeOf lost the code: %q", CodeOf(e))
	}
	bare := &Error{Code: ErrCancelled}
	if bare.Error() != "E_CANCELLED" {
		t.Fatalf("unexpected bare error string: %q", bare.Error())
	}
}

func TestQueueNameConvention(t *testing.T) {
	want := map[string]string{
		ServiceTerminalSim: "CargoNetSim.CommandQueue.TerminalSim",
		ServiceTrainSim:    "CargoNetSim.CommandQueue.TrainSim",
		ServiceShipSim:     "CargoNetSim.CommandQueue.ShipSim",
		ServiceTruckSim:    "CargoNetSim.CommandQueue.TruckSim",
	}
	for svc, q := range want {
		if got := CommandQueueName(svc); got != q {
			t.Fatalf("queue for %s: got %q want %q", svc, got, q)
		}
	}
}
