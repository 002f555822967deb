// Package credential lays out the physical identity card and composes it into
// printable PDF pages.
//
// The card face is 50 x 25 mm. It is drawn on a base grid of 4 px/mm and
// rasterized at an oversampling factor, then embedded into a page that adds a
// 10 mm margin on every side. Rendering is pure: the same request, credential
// and settings always produce the same bytes.
package credential

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"regportal/internal/apperror"
	"regportal/internal/model"
)

const (
	CardWidthMM  = 50.0
	CardHeightMM = 25.0
	PageMarginMM = 10.0

	// DefaultOversample is the raster scale applied on top of the base grid.
	DefaultOversample = 5

	pxPerMM    = 4
	baseWidth  = int(CardWidthMM) * pxPerMM
	baseHeight = int(CardHeightMM) * pxPerMM
	headerH    = 22
	qrSize     = 58
	textLeft   = 6
)

var (
	brand      = color.RGBA{R: 0x1f, G: 0x4e, B: 0x8c, A: 0xff}
	ink        = color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}
	muted      = color.RGBA{R: 0x55, G: 0x5b, B: 0x66, A: 0xff}
	paper      = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	fixedEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Renderer draws credential faces for one organization.
type Renderer struct {
	orgName      string
	orgShortName string
	oversample   int
}

type Option func(*Renderer)

// WithOversample overrides the raster scale. Values below 1 are ignored.
func WithOversample(n int) Option {
	return func(r *Renderer) {
		if n >= 1 {
			r.oversample = n
		}
	}
}

func NewRenderer(orgName, orgShortName string, opts ...Option) *Renderer {
	r := &Renderer{
		orgName:      strings.TrimSpace(orgName),
		orgShortName: strings.TrimSpace(orgShortName),
		oversample:   DefaultOversample,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FileName is the download name of a single credential artifact.
func FileName(employeeID string) string {
	return fmt.Sprintf("employee-id-%s.pdf", employeeID)
}

// VerificationPayload is the content of the card's 2-D code.
type VerificationPayload struct {
	EmployeeID string `json:"employeeId"`
	IDNumber   string `json:"idNumber"`
	Expires    string `json:"expires,omitempty"`
}

// Rasterize draws the card face. It refuses to draw a card with blank identity fields.
func (r *Renderer) Rasterize(req *model.RegistrationRequest, cred *model.Credential) (image.Image, error) {
	if req == nil {
		return nil, apperror.RenderFailure("no registration request", nil)
	}
	if strings.TrimSpace(req.FullName) == "" || strings.TrimSpace(req.EmployeeID) == "" {
		return nil, apperror.RenderFailure(fmt.Sprintf("request %s is missing full name or employee id", req.ID), nil)
	}
	if cred == nil || strings.TrimSpace(cred.IDNumber) == "" {
		return nil, apperror.RenderFailure(fmt.Sprintf("request %s has no credential number", req.ID), nil)
	}

	s := r.oversample
	card := image.NewRGBA(image.Rect(0, 0, baseWidth*s, baseHeight*s))
	draw.Draw(card, card.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)
	draw.Draw(card, image.Rect(0, 0, baseWidth*s, headerH*s), image.NewUniform(brand), image.Point{}, draw.Src)

	r.drawMark(card)
	r.drawText(card, fit(r.orgName, (baseWidth-28-4)/7), 28, 15, paper)

	r.drawText(card, fit(strings.ToUpper(req.FullName), (baseWidth-qrSize-textLeft-8)/7), textLeft, 38, ink)
	r.drawText(card, "ID: "+TruncateReference(cred.IDNumber), textLeft, 54, muted)
	r.drawText(card, fit("EMP: "+req.EmployeeID, (baseWidth-qrSize-textLeft-8)/7), textLeft, 67, muted)
	r.drawText(card, "ISSUED: "+cred.IssueDate.UTC().Format("2006-01-02"), textLeft, 80, muted)
	if !cred.ExpiryDate.IsZero() {
		r.drawText(card, "EXPIRES: "+cred.ExpiryDate.UTC().Format("2006-01-02"), textLeft, 93, muted)
	}

	if err := r.drawCode(card, req, cred); err != nil {
		return nil, err
	}
	return card, nil
}

// Compose embeds each face, in order, on its own card-sized page with margins.
func (r *Renderer) Compose(faces []image.Image) ([]byte, error) {
	if len(faces) == 0 {
		return nil, apperror.RenderFailure("nothing to compose", nil)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: CardWidthMM + 2*PageMarginMM, Ht: CardHeightMM + 2*PageMarginMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("regportal", true)
	pdf.SetCreationDate(fixedEpoch)
	pdf.SetModificationDate(fixedEpoch)
	pdf.SetCatalogSort(true)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for i, face := range faces {
		var buf bytes.Buffer
		if err := png.Encode(&buf, face); err != nil {
			return nil, apperror.RenderFailure("encode card raster", err)
		}
		name := fmt.Sprintf("card-%d", i)
		pdf.RegisterImageOptionsReader(name, opts, &buf)
		pdf.AddPage()
		pdf.ImageOptions(name, PageMarginMM, PageMarginMM, CardWidthMM, CardHeightMM, false, opts, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, apperror.RenderFailure("write pdf", err)
	}
	return out.Bytes(), nil
}

// TruncateReference shortens an id number to the 8-character form printed on the card.
func TruncateReference(id string) string {
	id = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(id), "-", ""))
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (r *Renderer) drawMark(card *image.RGBA) {
	s := r.oversample
	cx, cy, radius := 13*s, (headerH/2)*s, 9*s
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				card.SetRGBA(x, y, paper)
			}
		}
	}
	initials := fit(strings.ToUpper(r.orgShortName), 2)
	if initials == "" {
		initials = initialsOf(r.orgName)
	}
	w := utf8.RuneCountInString(initials) * basicfont.Face7x13.Advance
	r.drawText(card, initials, 13-w/2, headerH/2+4, brand)
}

func (r *Renderer) drawCode(card *image.RGBA, req *model.RegistrationRequest, cred *model.Credential) error {
	payload := VerificationPayload{EmployeeID: req.EmployeeID, IDNumber: cred.IDNumber}
	if !cred.ExpiryDate.IsZero() {
		payload.Expires = cred.ExpiryDate.UTC().Format("2006-01-02")
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return apperror.RenderFailure("encode verification payload", err)
	}
	qr, err := qrcode.New(string(b), qrcode.Medium)
	if err != nil {
		return apperror.RenderFailure("build verification code", err)
	}
	qr.DisableBorder = true

	s := r.oversample
	top := headerH + (baseHeight-headerH-qrSize)/2
	left := baseWidth - qrSize - 4
	dst := image.Rect(left*s, top*s, (left+qrSize)*s, (top+qrSize)*s)
	src := qr.Image(qrSize * s)
	draw.NearestNeighbor.Scale(card, dst, src, src.Bounds(), draw.Src, nil)
	return nil
}

// drawText draws s with its baseline at (x, baseline) on the base grid, scaled
// to the raster.
func (r *Renderer) drawText(card *image.RGBA, s string, x, baseline int, c color.Color) {
	if s == "" {
		return
	}
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	h := face.Height

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	d := font.Drawer{Dst: mask, Src: image.Opaque, Face: face, Dot: fixed.P(0, face.Ascent)}
	d.DrawString(s)

	k := r.oversample
	scaled := image.NewAlpha(image.Rect(0, 0, w*k, h*k))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), draw.Src, nil)

	top := (baseline - face.Ascent) * k
	dst := image.Rect(x*k, top, x*k+w*k, top+h*k)
	draw.DrawMask(card, dst, image.NewUniform(c), image.Point{}, scaled, image.Point{}, draw.Over)
}

// fit truncates s to at most n runes, marking the cut with a trailing '.'.
func fit(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n == 1 {
		return string(runes[:1])
	}
	return string(runes[:n-1]) + "."
}

func initialsOf(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(r)
		if b.Len() >= 2 {
			break
		}
	}
	return strings.ToUpper(b.String())
}
