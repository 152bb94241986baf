package source

import (
	"strings"
	"testing"
)

func TestDedupKeyIsStable(t *testing.T) {
	first, err := DedupKey(TypeOutlook, "AAMkAGI2_attachment-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := DedupKey(TypeOutlook, "AAMkAGI2_attachment-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Fatalf("expected stable key, got %q and %q", first, second)
	}
}

func TestDedupKeyNamespacesProviders(t *testing.T) {
	ref := "folder/cv.pdf"

	onedrive, err := DedupKey(TypeOneDrive, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sharepoint, err := DedupKey(TypeSharePoint, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if onedrive == sharepoint {
		t.Fatalf("expected distinct keys for the same ref across providers, got %q", onedrive)
	}
}

func TestDedupKeyPreservesLongReferences(t *testing.T) {
	// Microsoft Graph item ids can exceed 380 characters.
	ref := strings.Repeat("A", 500)

	key, err := DedupKey(TypeOutlook, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(key, ref) {
		t.Fatalf("expected the full reference preserved in the key")
	}
}

func TestDedupKeyRejectsEmptyInput(t *testing.T) {
	if _, err := DedupKey(TypeOutlook, "  "); err == nil {
		t.Fatalf("expected error for empty reference")
	}

	if _, err := DedupKey(Type(""), "ref"); err == nil {
		t.Fatalf("expected error for empty source type")
	}
}

func TestIsCVFile(t *testing.T) {
	cases := map[string]bool{
		"resume.pdf":   true,
		"resume.PDF":   true,
		"resume.docx":  true,
		"resume.doc":   true,
		"notes.txt":    true,
		"photo.png":    false,
		"archive.zip":  false,
		"noextension":  false,
		"resume.pdf.x": false,
	}

	for name, want := range cases {
		if got := IsCVFile(name); got != want {
			t.Fatalf("IsCVFile(%q) = %v, want %v", name, got, want)
		}
	}
}
