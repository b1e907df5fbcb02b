// Package ingest turns converted documents into classified, labeled, indexed
// chunks. One Run builds one corpus: text and equation chunks from the
// structural text units, OCR page fallbacks for pages the converter could not
// read, captioned tables and figures, then the vector index over all of it.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"folio/internal/chunk"
	"folio/internal/document"
	"folio/internal/label"
	"folio/internal/vector"
)

// Converter produces the structured form of one source file.
type Converter interface {
	Convert(ctx context.Context, path string) (*document.Converted, error)
}

// OCR transcribes an image to text.
type OCR interface {
	Transcribe(ctx context.Context, image []byte) (string, error)
}

// Captioner writes one-sentence captions for tables and figures.
type Captioner interface {
	CaptionText(ctx context.Context, instruction, text string) (string, error)
	CaptionImage(ctx context.Context, instruction string, png []byte) (string, error)
}

// VectorStore is the index backend plus the per-corpus purge a rebuild needs.
type VectorStore interface {
	vector.Store
	DeleteByCorpus(ctx context.Context, corpusID string) error
}

const (
	tableCaptionPrompt = "Write a one-sentence caption for this table:"
	imageCaptionPrompt = "Write a concise one-sentence summary of this figure:"
)

// Handle is the corpus-bound pair a completed ingestion commits. The answer
// engine is constructed from it; nothing else should reach the corpus's data.
type Handle struct {
	CorpusID string
	Chunks   chunk.Store
	Index    *vector.Index
}

// Pipeline holds the collaborators one ingestion run needs. Safe for reuse
// across corpora; each Run keeps its own counters and store.
type Pipeline struct {
	converter Converter
	ocr       OCR
	captioner Captioner
	embedder  vector.Embedder
	vectors   VectorStore
	newStore  func(corpusID string) chunk.Store
	assetDir  string
}

func NewPipeline(
	converter Converter,
	ocr OCR,
	captioner Captioner,
	embedder vector.Embedder,
	vectors VectorStore,
	newStore func(corpusID string) chunk.Store,
	assetDir string,
) *Pipeline {
	return &Pipeline{
		converter: converter,
		ocr:       ocr,
		captioner: captioner,
		embedder:  embedder,
		vectors:   vectors,
		newStore:  newStore,
		assetDir:  assetDir,
	}
}

// Run ingests the given files as one corpus and returns its handle. Any
// previous chunks and vector entries for the corpus are discarded first, so a
// re-run is a full rebuild. Any conversion, OCR, captioning, storage, or
// embedding failure fails the whole run; no partial corpus is committed as
// valid.
//
// Captioning completes before any embedding, so indexed text always reflects
// final captions.
func (p *Pipeline) Run(ctx context.Context, corpusID string, files []string) (*Handle, error) {
	store := p.newStore(corpusID)
	if err := store.Purge(ctx); err != nil {
		return nil, fmt.Errorf("purge chunks: %w", err)
	}
	if err := p.vectors.DeleteByCorpus(ctx, corpusID); err != nil {
		return nil, fmt.Errorf("purge vectors: %w", err)
	}

	r := &run{pipeline: p, corpusID: corpusID, store: store}
	for _, file := range files {
		conv, err := p.converter.Convert(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", filepath.Base(file), err)
		}
		source := sourceID(file)
		slog.InfoContext(ctx, "extracting document", "corpus_id", corpusID, "source", source, "pages", conv.PageCount)
		if err := r.extract(ctx, source, conv); err != nil {
			return nil, fmt.Errorf("extract %s: %w", source, err)
		}
	}

	if err := r.captionImages(ctx); err != nil {
		return nil, err
	}

	index := vector.NewIndex(p.vectors, p.embedder, corpusID)
	if err := index.Add(ctx, r.chunks); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "corpus ingested", "corpus_id", corpusID, "documents", len(files), "chunks", len(r.chunks))
	return &Handle{CorpusID: corpusID, Chunks: store, Index: index}, nil
}

// run is the mutable state of one ingestion: the corpus-wide id counter and
// the in-memory mirror of emitted chunks that feeds the deferred captioning
// and index passes.
type run struct {
	pipeline *Pipeline
	corpusID string
	store    chunk.Store
	chunks   []chunk.Chunk
	nextID   int64
}

func (r *run) emit(ctx context.Context, c chunk.Chunk) error {
	r.nextID++
	c.ID = r.nextID
	if err := r.store.Put(ctx, &c); err != nil {
		return fmt.Errorf("store chunk %d: %w", c.ID, err)
	}
	r.chunks = append(r.chunks, c)
	return nil
}

// extract runs the per-document passes in order: text/equation, page
// fallback, tables, images. Table and figure numbering restarts per document.
func (r *run) extract(ctx context.Context, source string, conv *document.Converted) error {
	for _, unit := range conv.Texts {
		txt := CleanText(unit.Text)
		if txt == "" {
			continue
		}
		err := r.emit(ctx, chunk.Chunk{Source: source, Page: unit.Page, Kind: classifyText(txt), Content: txt})
		if err != nil {
			return err
		}
	}

	// Every page must contribute retrievable text: pages the converter
	// produced no prose for fall back to whole-page OCR.
	for page := 1; page <= conv.PageCount; page++ {
		existing, err := r.store.BySourcePageKind(ctx, source, page, chunk.KindText)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}
		raster, ok := conv.PageImage(page)
		if !ok {
			return fmt.Errorf("page %d: no raster for ocr fallback", page)
		}
		txt, err := r.pipeline.ocr.Transcribe(ctx, raster)
		if err != nil {
			return fmt.Errorf("ocr page %d: %w", page, err)
		}
		err = r.emit(ctx, chunk.Chunk{Source: source, Page: page, Kind: chunk.KindPage, Content: CleanText(txt)})
		if err != nil {
			return err
		}
	}

	tblNo := 0
	for _, tbl := range conv.Tables {
		tblNo++
		md := tbl.Markdown
		// A synthesized marker wins only when the export carries none of
		// its own; a conflicting numeral inside the document's caption
		// text is not reconciled.
		if !markerPattern.MatchString(md) {
			md = fmt.Sprintf("table%d:\n%s", tblNo, md)
		}
		summary, err := r.pipeline.captioner.CaptionText(ctx, tableCaptionPrompt, md)
		if err != nil {
			return fmt.Errorf("caption table %d: %w", tblNo, err)
		}
		caption := fmt.Sprintf("table%d: %s", tblNo, strings.TrimSpace(summary))
		key, _ := label.Normalize(caption)
		err = r.emit(ctx, chunk.Chunk{
			Source:   source,
			Page:     tbl.Page,
			Kind:     chunk.KindTable,
			Content:  md,
			Caption:  caption,
			LabelKey: key,
		})
		if err != nil {
			return err
		}
	}

	figNo := 0
	for _, pic := range conv.Pictures {
		if pic.Page <= 0 {
			continue
		}
		figNo++
		path, err := r.writeAsset(source, figNo, pic)
		if err != nil {
			return fmt.Errorf("render figure %d: %w", figNo, err)
		}
		// OCR text stands in for content until the deferred caption pass.
		proxy, err := r.pipeline.ocr.Transcribe(ctx, pic.PNG)
		if err != nil {
			return fmt.Errorf("ocr figure %d: %w", figNo, err)
		}
		key, _ := label.Normalize(fmt.Sprintf("fig%d:", figNo))
		err = r.emit(ctx, chunk.Chunk{
			Source:    source,
			Page:      pic.Page,
			Kind:      chunk.KindImage,
			Content:   CleanText(proxy),
			MediaPath: path,
			LabelKey:  key,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *run) writeAsset(source string, figNo int, pic document.Picture) (string, error) {
	dir := filepath.Join(r.pipeline.assetDir, r.corpusID, source)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("fig%d_p%d.png", figNo, pic.Page))
	if err := os.WriteFile(path, pic.PNG, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// captionImages is the deferred pass: every image chunk gets its caption from
// the rendered asset once all documents are extracted. Runs before the index
// build.
func (r *run) captionImages(ctx context.Context) error {
	for i := range r.chunks {
		c := &r.chunks[i]
		if c.Kind != chunk.KindImage {
			continue
		}
		png, err := os.ReadFile(c.MediaPath)
		if err != nil {
			return fmt.Errorf("read asset %s: %w", c.MediaPath, err)
		}
		caption, err := r.pipeline.captioner.CaptionImage(ctx, imageCaptionPrompt, png)
		if err != nil {
			return fmt.Errorf("caption figure chunk %d: %w", c.ID, err)
		}
		caption = strings.TrimSpace(caption)
		if err := r.store.SetCaption(ctx, c.ID, caption); err != nil {
			return fmt.Errorf("set caption on chunk %d: %w", c.ID, err)
		}
		c.Caption = caption
	}
	return nil
}

// sourceID is the lowercased file stem, stable across chunks from one file.
func sourceID(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
