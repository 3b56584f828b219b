package tree

import (
	"testing"
)

func TestNewTree(t *testing.T) {
	tr := New[string]("root")

	if tr.Size() != 1 {
		t.Errorf("Expected size 1 after creation, got %d", tr.Size())
	}

	val, ok := tr.Value(RootID)
	if !ok {
		t.Fatalf("Expected root node to exist")
	}
	if *val != "root" {
		t.Errorf("Expected root value 'root', got '%s'", *val)
	}
}

func TestAddChild(t *testing.T) {
	tr := New[string]("root")

	// Create a child
	childID, err := tr.AddChild(RootID, "a", "value-a")
	if err != nil {
		t.Fatalf("Failed to add child: %v", err)
	}

	// Look it up via the edge segment
	foundID, ok := tr.Child(RootID, "a")
	if !ok {
		t.Fatalf("Expected child 'a' to exist")
	}
	if foundID != childID {
		t.Errorf("Child lookup returned %d, expected %d", foundID, childID)
	}

	// Adding the same segment again returns the existing node and keeps its value
	againID, err := tr.AddChild(RootID, "a", "other-value")
	if err != nil {
		t.Fatalf("Failed to re-add child: %v", err)
	}
	if againID != childID {
		t.Errorf("Re-adding child returned %d, expected existing %d", againID, childID)
	}
	val, _ := tr.Value(childID)
	if *val != "value-a" {
		t.Errorf("Expected value 'value-a' to be untouched, got '%s'", *val)
	}

	// Adding to a nonexistent parent fails
	if _, err := tr.AddChild(NodeID(9999), "x", "value"); err == nil {
		t.Errorf("Expected error when adding child to nonexistent parent")
	}
}

func TestValueMutable(t *testing.T) {
	tr := New[[]int](nil)

	childID, err := tr.AddChild(RootID, "a", []int{1})
	if err != nil {
		t.Fatalf("Failed to add child: %v", err)
	}

	// Mutate the value through the returned pointer
	val, ok := tr.Value(childID)
	if !ok {
		t.Fatalf("Expected node to exist")
	}
	*val = append(*val, 2)

	val, _ = tr.Value(childID)
	if len(*val) != 2 {
		t.Errorf("Expected mutation to be visible, got %v", *val)
	}

	// Nonexistent node
	if _, ok := tr.Value(NodeID(9999)); ok {
		t.Errorf("Expected Value to report missing node")
	}
}

func TestChildren(t *testing.T) {
	tr := New[string]("root")

	aID, _ := tr.AddChild(RootID, "a", "value-a")
	bID, _ := tr.AddChild(RootID, "b", "value-b")

	children := tr.Children(RootID)
	if len(children) != 2 {
		t.Fatalf("Expected 2 children, got %d", len(children))
	}
	if children["a"] != aID || children["b"] != bID {
		t.Errorf("Children returned wrong IDs: %v", children)
	}

	// The returned map is a copy, mutating it must not affect the tree
	delete(children, "a")
	if _, ok := tr.Child(RootID, "a"); !ok {
		t.Errorf("Mutating the returned children map affected the tree")
	}
}

func TestDeleteNode(t *testing.T) {
	tr := New[string]("root")

	aID, _ := tr.AddChild(RootID, "a", "value-a")
	bID, _ := tr.AddChild(aID, "b", "value-b")

	// Deleting the root is refused
	if err := tr.DeleteNode(RootID); err == nil {
		t.Errorf("Expected error when deleting the root node")
	}

	// Deleting a node with children is refused
	if err := tr.DeleteNode(aID); err == nil {
		t.Errorf("Expected error when deleting a node with children")
	}
	if _, ok := tr.Value(aID); !ok {
		t.Errorf("Node should still exist after refused deletion")
	}

	// Deleting a leaf works
	if err := tr.DeleteNode(bID); err != nil {
		t.Fatalf("Failed to delete leaf: %v", err)
	}
	if _, ok := tr.Child(aID, "b"); ok {
		t.Errorf("Deleted leaf still reachable from parent")
	}
	if tr.Size() != 2 {
		t.Errorf("Expected size 2 after leaf deletion, got %d", tr.Size())
	}

	// Now the former parent is a leaf and can be deleted
	if err := tr.DeleteNode(aID); err != nil {
		t.Fatalf("Failed to delete former parent: %v", err)
	}

	// Deleting a nonexistent node fails
	if err := tr.DeleteNode(NodeID(9999)); err == nil {
		t.Errorf("Expected error when deleting nonexistent node")
	}
}

func TestDeleteSubtree(t *testing.T) {
	tr := New[string]("root")

	aID, _ := tr.AddChild(RootID, "a", "value-a")
	bID, _ := tr.AddChild(aID, "b", "value-b")
	cID, _ := tr.AddChild(bID, "c", "value-c")
	dID, _ := tr.AddChild(RootID, "d", "value-d")

	// Delete the subtree rooted at "a"
	if err := tr.DeleteSubtree(aID); err != nil {
		t.Fatalf("Failed to delete subtree: %v", err)
	}

	for _, id := range []NodeID{aID, bID, cID} {
		if _, ok := tr.Value(id); ok {
			t.Errorf("Node %d should have been removed with the subtree", id)
		}
	}

	// The sibling branch is untouched
	if _, ok := tr.Value(dID); !ok {
		t.Errorf("Sibling node was removed by unrelated subtree deletion")
	}
	if tr.Size() != 2 {
		t.Errorf("Expected size 2 after subtree deletion, got %d", tr.Size())
	}
}

func TestDeleteSubtreeRoot(t *testing.T) {
	tr := New[string]("root")

	aID, _ := tr.AddChild(RootID, "a", "value-a")
	tr.AddChild(aID, "b", "value-b")

	// Deleting the root subtree clears the whole tree but keeps the root
	if err := tr.DeleteSubtree(RootID); err != nil {
		t.Fatalf("Failed to delete root subtree: %v", err)
	}

	if tr.Size() != 1 {
		t.Errorf("Expected only the root to remain, got size %d", tr.Size())
	}

	// The root value is reset to the zero value
	val, ok := tr.Value(RootID)
	if !ok {
		t.Fatalf("Root node must survive subtree deletion")
	}
	if *val != "" {
		t.Errorf("Expected root value to be zeroed, got '%s'", *val)
	}

	// The tree remains usable
	if _, err := tr.AddChild(RootID, "x", "value-x"); err != nil {
		t.Errorf("Tree unusable after root subtree deletion: %v", err)
	}
}
