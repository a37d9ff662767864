package services

import (
	"context"
	"errors"
	"testing"
)

func TestToggle_FlipsPerUserState(t *testing.T) {
	svc, _ := newComplaintService(t, testNow)
	up := &UpvoteService{DB: svc.DB}
	ctx := context.Background()

	c, err := svc.Submit(ctx, validSubmit())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	liked, err := up.Toggle(ctx, c.ID, "user-1")
	if err != nil {
		t.Fatalf("Toggle on: %v", err)
	}
	if !liked {
		t.Fatal("first toggle must like")
	}

	liked, err = up.Toggle(ctx, c.ID, "user-1")
	if err != nil {
		t.Fatalf("Toggle off: %v", err)
	}
	if liked {
		t.Fatal("second toggle must withdraw")
	}

	liked, err = up.Toggle(ctx, c.ID, "user-1")
	if err != nil {
		t.Fatalf("Toggle on again: %v", err)
	}
	if !liked {
		t.Fatal("third toggle must like again")
	}
}

func TestToggle_UsersAreIndependent(t *testing.T) {
	svc, _ := newComplaintService(t, testNow)
	up := &UpvoteService{DB: svc.DB}
	ctx := context.Background()

	c, err := svc.Submit(ctx, validSubmit())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	for _, u := range []string{"user-1", "user-2", "user-3"} {
		if _, err := up.Toggle(ctx, c.ID, u); err != nil {
			t.Fatalf("Toggle %s: %v", u, err)
		}
	}
	// user-2 withdraws; the others keep theirs.
	if _, err := up.Toggle(ctx, c.ID, "user-2"); err != nil {
		t.Fatalf("Toggle off user-2: %v", err)
	}

	n, err := up.Count(ctx, c.ID)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d; want 2", n)
	}

	liked, err := up.Liked(ctx, c.ID, "user-2")
	if err != nil {
		t.Fatalf("Liked: %v", err)
	}
	if liked {
		t.Fatal("user-2 must no longer be liked")
	}
}

func TestToggle_UnknownComplaint(t *testing.T) {
	svc, _ := newComplaintService(t, testNow)
	up := &UpvoteService{DB: svc.DB}

	if _, err := up.Toggle(context.Background(), "missing", "user-1"); !errors.Is(err, ErrComplaintNotFound) {
		t.Fatalf("err = %v; want ErrComplaintNotFound", err)
	}
}
