package cards

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

const (
	cardWidth  = 1080
	cardHeight = 1080
	logoSize   = 220
)

var (
	colorBackground = color.RGBA{R: 0x12, G: 0x16, B: 0x2b, A: 0xff}
	colorAccent     = color.RGBA{R: 0xf2, G: 0x6b, B: 0x1d, A: 0xff}
	colorText       = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorMuted      = color.RGBA{R: 0x9a, G: 0xa3, B: 0xc2, A: 0xff}
	colorWin        = color.RGBA{R: 0x2e, G: 0xc4, B: 0x6b, A: 0xff}
	colorLoss       = color.RGBA{R: 0xe0, G: 0x3e, B: 0x3e, A: 0xff}
)

// MatchCard - данные для карточки матча.
type MatchCard struct {
	TeamName      string
	Opponent      string
	OurScore      *int
	OpponentScore *int
	DateText      string
	Location      string
	// Logo - логотип команды, может быть nil.
	Logo image.Image
}

type faces struct {
	title font.Face
	score font.Face
	body  font.Face
}

var (
	facesOnce sync.Once
	facesErr  error
	cardFaces faces
)

func loadFaces() (faces, error) {
	facesOnce.Do(func() {
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			facesErr = fmt.Errorf("parse regular font: %w", err)
			return
		}
		bold, err := opentype.Parse(gobold.TTF)
		if err != nil {
			facesErr = fmt.Errorf("parse bold font: %w", err)
			return
		}
		newFace := func(f *opentype.Font, size float64) font.Face {
			if facesErr != nil {
				return nil
			}
			face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
			if err != nil {
				facesErr = fmt.Errorf("create font face: %w", err)
			}
			return face
		}
		cardFaces = faces{
			title: newFace(bold, 64),
			score: newFace(bold, 180),
			body:  newFace(regular, 44),
		}
	})
	return cardFaces, facesErr
}

// RenderMatchCard рисует карточку матча в PNG. Без счета рисуется анонс игры.
func RenderMatchCard(card MatchCard) ([]byte, error) {
	f, err := loadFaces()
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: colorBackground}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, cardWidth, 24), &image.Uniform{C: colorAccent}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, cardHeight-24, cardWidth, cardHeight), &image.Uniform{C: colorAccent}, image.Point{}, draw.Src)

	y := 120
	if card.Logo != nil {
		dst := image.Rect((cardWidth-logoSize)/2, 80, (cardWidth+logoSize)/2, 80+logoSize)
		draw.CatmullRom.Scale(img, dst, card.Logo, card.Logo.Bounds(), draw.Over, nil)
		y = 80 + logoSize + 80
	}

	drawCentered(img, f.title, card.TeamName, y, colorText)
	drawCentered(img, f.body, "vs", y+70, colorMuted)
	drawCentered(img, f.title, card.Opponent, y+150, colorText)

	if card.OurScore != nil && card.OpponentScore != nil {
		our, their := *card.OurScore, *card.OpponentScore
		drawCentered(img, f.score, fmt.Sprintf("%d : %d", our, their), y+370, colorText)
		label, c := "НИЧЬЯ", colorMuted
		switch {
		case our > their:
			label, c = "ПОБЕДА", colorWin
		case our < their:
			label, c = "ПОРАЖЕНИЕ", colorLoss
		}
		drawCentered(img, f.title, label, y+470, c)
	} else {
		drawCentered(img, f.title, "АНОНС ИГРЫ", y+320, colorAccent)
	}

	drawCentered(img, f.body, card.DateText, cardHeight-140, colorMuted)
	if card.Location != "" {
		drawCentered(img, f.body, card.Location, cardHeight-80, colorMuted)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode match card: %w", err)
	}
	return buf.Bytes(), nil
}

func drawCentered(dst draw.Image, face font.Face, text string, baseline int, c color.Color) {
	if text == "" {
		return
	}
	d := &font.Drawer{Dst: dst, Src: &image.Uniform{C: c}, Face: face}
	width := d.MeasureString(text).Ceil()
	x := (cardWidth - width) / 2
	if x < 20 {
		x = 20
	}
	d.Dot = fixed.P(x, baseline)
	d.DrawString(text)
}

// DecodeImage декодирует PNG, JPEG или WebP.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
