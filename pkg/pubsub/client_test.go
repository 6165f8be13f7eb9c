package pubsub

import (
	"testing"

	"github.com/angelmondragon/freightdesk-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	tests := []struct {
		name    string
		project string
		kind    string
		input   string
		want    string
	}{
		{name: "bare topic", project: "p1", kind: "topics", input: "workflow", want: "projects/p1/topics/workflow"},
		{name: "full topic", project: "p1", kind: "topics", input: "projects/other/topics/workflow", want: "projects/other/topics/workflow"},
		{name: "subscription", project: "p1", kind: "subscriptions", input: " sub ", want: "projects/p1/subscriptions/sub"},
		{name: "empty", project: "p1", kind: "topics", input: "  ", want: ""},
		{name: "missing project", project: "", kind: "topics", input: "workflow", want: ""},
	}
	for _, tt := range tests {
		if got := resourceName(tt.project, tt.kind, tt.input); got != tt.want {
			t.Fatalf("%s: expected %q got %q", tt.name, tt.want, got)
		}
	}
}

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	if names := subscriptionNames(config.PubSubConfig{WorkflowSubscription: " "}); len(names) != 0 {
		t.Fatalf("expected no names, got %v", names)
	}
	names := subscriptionNames(config.PubSubConfig{WorkflowSubscription: "workflow-sub"})
	if len(names) != 1 || names[0] != "workflow-sub" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	if c.Publisher("topic") != nil {
		t.Fatal("nil client should return nil publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil close should be a no-op: %v", err)
	}
}
