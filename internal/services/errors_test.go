package services

import (
	"context"
	"errors"
	"testing"
)

func TestStoreErr_Classification(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"nil", nil, false},
		{"locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"table locked", errors.New("database table is locked"), true},
		{"closed", errors.New("sql: database is closed"), true},
		{"conn refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"bad conn", errors.New("driver: bad connection"), true},
		{"constraint", errors.New("UNIQUE constraint failed: upvotes.complaint_id"), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := storeErr(tc.err)
			if tc.err == nil {
				if got != nil {
					t.Fatalf("storeErr(nil) = %v", got)
				}
				return
			}
			if errors.Is(got, ErrStoreUnavailable) != tc.unavailable {
				t.Fatalf("storeErr(%v) unavailable = %v; want %v", tc.err, !tc.unavailable, tc.unavailable)
			}
			if !tc.unavailable && got != tc.err {
				t.Fatalf("non-transient error must pass through unchanged, got %v", got)
			}
		})
	}
}

func TestGet_ClosedStoreReportsUnavailable(t *testing.T) {
	svc, _ := newComplaintService(t, testNow)
	ctx := context.Background()

	c, err := svc.Submit(ctx, validSubmit())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sqlDB, err := svc.DB.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := svc.Get(ctx, c.ID); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v; want ErrStoreUnavailable", err)
	}
}
