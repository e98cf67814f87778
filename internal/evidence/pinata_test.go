package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/andreeap/go-forest-watch/internal/models"
	"github.com/andreeap/go-forest-watch/internal/raster"
)

func testMeta() Metadata {
	return Metadata{
		BBox:                 models.BoundingBox{MinLon: 25.0, MinLat: 45.0, MaxLon: 25.05, MaxLat: 45.05},
		DateBefore:           "2025-09-01",
		DateAfter:            "2025-09-15",
		PercentDeforestation: 7.5,
		PercentReforestation: 0.2,
		Kind:                 "change",
	}
}

// pinataFake serves both pin endpoints, handing out sequential CIDs and
// recording what was pinned.
type pinataFake struct {
	t         *testing.T
	fileCalls atomic.Int64
	jsonCalls atomic.Int64
	failFile  bool
	failJSON  bool
	lastMeta  Metadata
}

func (p *pinataFake) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("pinata_api_key") == "" || r.Header.Get("pinata_secret_api_key") == "" {
			p.t.Error("expected pinata credential headers")
		}
		switch r.URL.Path {
		case "/pinning/pinFileToIPFS":
			n := p.fileCalls.Add(1)
			if p.failFile {
				http.Error(w, "upload rejected", http.StatusBadGateway)
				return
			}
			file, _, err := r.FormFile("file")
			if err != nil {
				p.t.Errorf("reading pinned file: %v", err)
				http.Error(w, "bad form", http.StatusBadRequest)
				return
			}
			defer file.Close()
			if _, err := png.Decode(file); err != nil {
				p.t.Errorf("pinned file is not a PNG: %v", err)
			}
			json.NewEncoder(w).Encode(pinResponse{IpfsHash: fmt.Sprintf("QmImg%d", n)})
		case "/pinning/pinJSONToIPFS":
			n := p.jsonCalls.Add(1)
			if p.failJSON {
				http.Error(w, "upload rejected", http.StatusBadGateway)
				return
			}
			if err := json.NewDecoder(r.Body).Decode(&p.lastMeta); err != nil {
				p.t.Errorf("decoding pinned metadata: %v", err)
			}
			json.NewEncoder(w).Encode(pinResponse{IpfsHash: fmt.Sprintf("QmMeta%d", n)})
		default:
			p.t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}
}

func newTestPublisher(srvURL string) *Publisher {
	return NewPublisher(Config{BaseURL: srvURL, APIKey: "key", SecretKey: "secret"})
}

func TestPublish_PinsImageThenMetadata(t *testing.T) {
	fake := &pinataFake{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	mask := raster.NewMask(4, 4)
	mask.Set(0, 0, true)
	mask.Set(2, 3, true)

	cid, ok := newTestPublisher(srv.URL).Publish(context.Background(), mask, testMeta())
	if !ok {
		t.Fatal("expected publish to succeed")
	}
	if cid != "QmMeta1" {
		t.Errorf("expected metadata cid QmMeta1, got %s", cid)
	}

	if fake.lastMeta.ImageCID != "QmImg1" {
		t.Errorf("metadata should embed image cid QmImg1, got %q", fake.lastMeta.ImageCID)
	}
	if fake.lastMeta.DateBefore != "2025-09-01" || fake.lastMeta.Kind != "change" {
		t.Errorf("metadata fields not preserved: %+v", fake.lastMeta)
	}
}

func TestPublish_TwiceYieldsDistinctCIDs(t *testing.T) {
	fake := &pinataFake{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	p := newTestPublisher(srv.URL)
	mask := raster.NewMask(2, 2)

	first, ok := p.Publish(context.Background(), mask, testMeta())
	if !ok {
		t.Fatal("first publish failed")
	}
	second, ok := p.Publish(context.Background(), mask, testMeta())
	if !ok {
		t.Fatal("second publish failed")
	}

	if first == second {
		t.Errorf("content-addressed store is append-only; expected distinct cids, both were %s", first)
	}
	if first != "QmMeta1" {
		t.Errorf("second publish must not mutate the first result, got %s", first)
	}
}

func TestPublish_ImagePinFailureReturnsAbsent(t *testing.T) {
	fake := &pinataFake{t: t, failFile: true}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	cid, ok := newTestPublisher(srv.URL).Publish(context.Background(), raster.NewMask(2, 2), testMeta())
	if ok || cid != "" {
		t.Errorf("expected absent result, got (%q, %v)", cid, ok)
	}
	if fake.jsonCalls.Load() != 0 {
		t.Error("metadata must not be pinned when the image pin fails")
	}
}

func TestPublish_MetadataPinFailureReturnsAbsent(t *testing.T) {
	fake := &pinataFake{t: t, failJSON: true}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	cid, ok := newTestPublisher(srv.URL).Publish(context.Background(), raster.NewMask(2, 2), testMeta())
	if ok || cid != "" {
		// the orphaned image cid must never leak to the caller
		t.Errorf("expected absent result, got (%q, %v)", cid, ok)
	}
}

func TestPublish_MissingKeysSkipsUploads(t *testing.T) {
	fake := &pinataFake{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	p := NewPublisher(Config{BaseURL: srv.URL})
	if p.Configured() {
		t.Error("publisher without keys should not report configured")
	}

	if _, ok := p.Publish(context.Background(), raster.NewMask(2, 2), testMeta()); ok {
		t.Error("expected absent result without keys")
	}
	if fake.fileCalls.Load() != 0 || fake.jsonCalls.Load() != 0 {
		t.Error("expected no uploads without keys")
	}
}

func TestMaskPNG_GrayscaleEncoding(t *testing.T) {
	mask := raster.NewMask(2, 3)
	mask.Set(0, 1, true)

	data, err := maskPNG(mask)
	if err != nil {
		t.Fatalf("maskPNG failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding mask png: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("expected 3x2 image, got %dx%d", b.Dx(), b.Dy())
	}

	r, _, _, _ := img.At(1, 0).RGBA()
	if r != 0xffff {
		t.Errorf("changed pixel should be white, got %v", r)
	}
	r, _, _, _ = img.At(0, 0).RGBA()
	if r != 0 {
		t.Errorf("unchanged pixel should be black, got %v", r)
	}
}
