package refactor

import (
	"strings"
	"testing"
)

var testEnv = Environment{Account: "111111111111", Region: "us-east-1"}

func TestApplyOverrides_ConsumesEndpoints(t *testing.T) {
	oldPool := poolOf(t,
		bucket("Stack1/OldA/Resource", "Stack1", "OldA", nil),
		bucket("Stack1/OldB/Resource", "Stack1", "OldB", map[string]interface{}{"BucketName": "b"}),
	)
	newPool := poolOf(t,
		bucket("Stack1/NewA/Resource", "Stack1", "NewA", nil),
		bucket("Stack1/NewB/Resource", "Stack1", "NewB", map[string]interface{}{"BucketName": "b"}),
	)

	overrides := []Override{{Environment: testEnv, SourcePath: "Stack1/OldA/Resource", DestinationPath: "Stack1/NewA/Resource"}}
	forced, err := ApplyOverrides(testEnv, overrides, oldPool, newPool)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(forced) != 1 || forced[0].SourcePath != "Stack1/OldA/Resource" || forced[0].Type != "AWS::S3::Bucket" {
		t.Errorf("Expected one forced mapping, got %v", forced)
	}
	if _, ok := oldPool["Stack1/OldA/Resource"]; ok {
		t.Error("Expected override source to be removed from the old pool")
	}
	if _, ok := newPool["Stack1/NewA/Resource"]; ok {
		t.Error("Expected override destination to be removed from the new pool")
	}
	if len(oldPool) != 1 || len(newPool) != 1 {
		t.Errorf("Expected untouched resources to remain, got %d old / %d new", len(oldPool), len(newPool))
	}
}

// A forced pairing is honored verbatim even when the two digests differ:
// structural equality never overrides an explicit user assertion.
func TestApplyOverrides_DigestMismatchHonored(t *testing.T) {
	oldPool := poolOf(t, bucket("Stack1/Old/Resource", "Stack1", "Old", map[string]interface{}{"BucketName": "old"}))
	newPool := poolOf(t, bucket("Stack1/New/Resource", "Stack1", "New", map[string]interface{}{"BucketName": "renamed-and-changed"}))

	overrides := []Override{{Environment: testEnv, SourcePath: "Stack1/Old/Resource", DestinationPath: "Stack1/New/Resource"}}
	forced, err := ApplyOverrides(testEnv, overrides, oldPool, newPool)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(forced) != 1 {
		t.Fatalf("Expected one forced mapping, got %v", forced)
	}
	if len(oldPool) != 0 || len(newPool) != 0 {
		t.Error("Expected both pools to be drained")
	}
}

func TestApplyOverrides_MissingSource(t *testing.T) {
	oldPool := poolOf(t, bucket("Stack1/Old/Resource", "Stack1", "Old", nil))
	newPool := poolOf(t, bucket("Stack1/New/Resource", "Stack1", "New", nil))

	overrides := []Override{{Environment: testEnv, SourcePath: "Stack1/Nope/Resource", DestinationPath: "Stack1/New/Resource"}}
	_, err := ApplyOverrides(testEnv, overrides, oldPool, newPool)
	if !IsConfiguration(err) {
		t.Fatalf("Expected configuration error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Stack1/Nope/Resource") {
		t.Errorf("Expected error to name the missing path, got: %v", err)
	}
}

func TestApplyOverrides_MissingDestination(t *testing.T) {
	oldPool := poolOf(t, bucket("Stack1/Old/Resource", "Stack1", "Old", nil))
	newPool := poolOf(t, bucket("Stack1/New/Resource", "Stack1", "New", nil))

	overrides := []Override{{Environment: testEnv, SourcePath: "Stack1/Old/Resource", DestinationPath: "Stack1/Nope/Resource"}}
	_, err := ApplyOverrides(testEnv, overrides, oldPool, newPool)
	if !IsConfiguration(err) {
		t.Fatalf("Expected configuration error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Stack1/Nope/Resource") {
		t.Errorf("Expected error to name the missing path, got: %v", err)
	}
}

func TestApplyOverrides_OtherEnvironmentSkipped(t *testing.T) {
	oldPool := poolOf(t, bucket("Stack1/Old/Resource", "Stack1", "Old", nil))
	newPool := poolOf(t, bucket("Stack1/New/Resource", "Stack1", "New", nil))

	other := Environment{Account: "222222222222", Region: "eu-west-1"}
	overrides := []Override{{Environment: other, SourcePath: "Stack1/Absent", DestinationPath: "Stack1/AlsoAbsent"}}

	forced, err := ApplyOverrides(testEnv, overrides, oldPool, newPool)
	if err != nil {
		t.Fatalf("Expected override scoped to another environment to be skipped, got: %v", err)
	}
	if len(forced) != 0 || len(oldPool) != 1 || len(newPool) != 1 {
		t.Errorf("Expected pools untouched, got forced=%v", forced)
	}
}
