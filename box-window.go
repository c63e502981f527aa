package main

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgbutil"
	"github.com/jezek/xgbutil/ewmh"
	"github.com/jezek/xgbutil/icccm"
	"github.com/sirupsen/logrus"

	"box11/internal/config"
	"box11/internal/paint"
)

const (
	depthWithAlpha = 32
	bitsPerPixel   = 32
	// Fixed part of a PutImage request, in bytes.
	putImageHeader = 24
)

// BoxWindow is the override-redirect window the text is shown in.
type BoxWindow struct {
	X  *xgb.Conn
	XU *xgbutil.XUtil

	screen   *xproto.ScreenInfo
	visual   xproto.Visualid
	depth    byte
	colormap xproto.Colormap
	window   xproto.Window
	gc       xproto.Gcontext

	byteOrder byte
	maxBytes  int

	surface *xSurface
	log     *logrus.Entry
}

func matchVisualInfo(depths []xproto.DepthInfo, depth byte, class byte) *xproto.VisualInfo {
	for _, d := range depths {
		if d.Depth != depth {
			continue
		}
		for _, visual := range d.Visuals {
			if visual.Class == class {
				return &visual
			}
		}
	}
	return nil
}

// rootVisual returns the screen's own visual when it is 24-bit TrueColor.
func rootVisual(screen *xproto.ScreenInfo) *xproto.VisualInfo {
	if screen.RootDepth != 24 {
		return nil
	}
	for _, d := range screen.AllowedDepths {
		if d.Depth != screen.RootDepth {
			continue
		}
		for _, visual := range d.Visuals {
			if visual.VisualId == screen.RootVisual && visual.Class == xproto.VisualClassTrueColor {
				return &visual
			}
		}
	}
	return nil
}

func hasPixmapFormat(formats []xproto.Format, depth byte) bool {
	for _, f := range formats {
		if f.Depth == depth && f.BitsPerPixel == bitsPerPixel {
			return true
		}
	}
	return false
}

func NewBoxWindow(X *xgb.Conn, xu *xgbutil.XUtil, cfg *config.Config, log *logrus.Entry) (*BoxWindow, error) {
	setup := xproto.Setup(X)
	screen := setup.DefaultScreen(X)

	bw := &BoxWindow{
		X:         X,
		XU:        xu,
		screen:    screen,
		byteOrder: setup.ImageByteOrder,
		maxBytes:  int(setup.MaximumRequestLength) * 4,
		log:       log,
	}

	visual := matchVisualInfo(screen.AllowedDepths, depthWithAlpha, xproto.VisualClassTrueColor)
	bw.depth = depthWithAlpha
	if visual == nil {
		visual = rootVisual(screen)
		if visual == nil {
			return nil, errors.New("no 32-bit or 24-bit TrueColor visual available")
		}
		bw.depth = screen.RootDepth
		log.Warn("No 32-bit visual available, transparency is disabled.")
	}
	bw.visual = visual.VisualId

	if !hasPixmapFormat(setup.PixmapFormats, bw.depth) {
		return nil, fmt.Errorf("no %d bits per pixel image format for depth %d", bitsPerPixel, bw.depth)
	}

	if err := bw.createWindow(cfg); err != nil {
		bw.Destroy()
		return nil, fmt.Errorf("failed to create box window: %w", err)
	}

	bw.setWindowProperties(cfg.Name)

	bw.surface = bw.newSurface(int(cfg.Width), int(cfg.Height))
	draw.Draw(bw.surface.img, bw.surface.img.Bounds(), image.NewUniform(cfg.Background), image.Point{}, draw.Src)

	log.WithFields(logrus.Fields{
		"id":    bw.window,
		"depth": bw.depth,
		"size":  fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
	}).Debug("Box window created")
	return bw, nil
}

func (bw *BoxWindow) createWindow(cfg *config.Config) error {
	var err error

	bw.colormap, err = xproto.NewColormapId(bw.X)
	if err != nil {
		return fmt.Errorf("new colormap id: %w", err)
	}
	err = xproto.CreateColormapChecked(bw.X, xproto.ColormapAllocNone,
		bw.colormap, bw.screen.Root, bw.visual).Check()
	if err != nil {
		bw.colormap = 0
		return fmt.Errorf("create colormap: %w", err)
	}

	wid, err := xproto.NewWindowId(bw.X)
	if err != nil {
		return fmt.Errorf("new window id: %w", err)
	}

	mask := uint32(xproto.CwBackPixel | xproto.CwBorderPixel |
		xproto.CwOverrideRedirect | xproto.CwEventMask | xproto.CwColormap)
	values := []uint32{
		cfg.Background.Pixel(bw.depth),  // CwBackPixel
		cfg.BorderColor.Pixel(bw.depth), // CwBorderPixel
		1,                               // CwOverrideRedirect - bypass window manager
		uint32(xproto.EventMaskExposure | xproto.EventMaskStructureNotify),
		uint32(bw.colormap),
	}

	err = xproto.CreateWindowChecked(bw.X,
		bw.depth,
		wid,
		bw.screen.Root,
		int16(cfg.X), int16(cfg.Y),
		max(cfg.Width, 1), max(cfg.Height, 1),
		cfg.Border,
		xproto.WindowClassInputOutput,
		bw.visual,
		mask,
		values).Check()
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	bw.window = wid

	bw.gc, err = xproto.NewGcontextId(bw.X)
	if err != nil {
		return fmt.Errorf("new graphics context id: %w", err)
	}
	err = xproto.CreateGCChecked(bw.X, bw.gc, xproto.Drawable(bw.window), 0, nil).Check()
	if err != nil {
		bw.gc = 0
		return fmt.Errorf("create graphics context: %w", err)
	}
	return nil
}

// Show maps the window and puts it on top of the stack.
func (bw *BoxWindow) Show() error {
	if err := xproto.MapWindowChecked(bw.X, bw.window).Check(); err != nil {
		return fmt.Errorf("failed to map window: %w", err)
	}
	return bw.Raise()
}

func (bw *BoxWindow) Raise() error {
	err := xproto.ConfigureWindowChecked(bw.X, bw.window,
		xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove}).Check()
	if err != nil {
		return fmt.Errorf("failed to raise window: %w", err)
	}
	return nil
}

// Resize implements paint.Window.
func (bw *BoxWindow) Resize(width, height int) (paint.Surface, error) {
	err := xproto.ConfigureWindowChecked(bw.X, bw.window,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(width), uint32(height)}).Check()
	if err != nil {
		return nil, fmt.Errorf("failed to resize window: %w", err)
	}
	bw.surface = bw.newSurface(width, height)
	return bw.surface, nil
}

// Surface returns the surface matching the current window size.
func (bw *BoxWindow) Surface() paint.Surface { return bw.surface }

// Present uploads the current surface again, raising the window first.
func (bw *BoxWindow) Present() error {
	if err := bw.Raise(); err != nil {
		return err
	}
	return bw.surface.Flush()
}

func (bw *BoxWindow) Sync() { bw.X.Sync() }

// Destroy releases the graphics context, window and colormap.
func (bw *BoxWindow) Destroy() error {
	var errs []error
	if bw.gc != 0 {
		errs = append(errs, xproto.FreeGCChecked(bw.X, bw.gc).Check())
		bw.gc = 0
	}
	if bw.window != 0 {
		errs = append(errs, xproto.DestroyWindowChecked(bw.X, bw.window).Check())
		bw.window = 0
	}
	if bw.colormap != 0 {
		errs = append(errs, xproto.FreeColormapChecked(bw.X, bw.colormap).Check())
		bw.colormap = 0
	}
	return errors.Join(errs...)
}

func (bw *BoxWindow) setWindowProperties(name string) {
	logErr := func(what string, err error) {
		if err != nil {
			bw.log.WithError(err).Warnf("Failed to set %s", what)
		}
	}

	logErr("WM_NAME", icccm.WmNameSet(bw.XU, bw.window, name))
	logErr("WM_CLASS", icccm.WmClassSet(bw.XU, bw.window, &icccm.WmClass{
		Instance: name,
		Class:    name,
	}))
	logErr("_NET_WM_NAME", ewmh.WmNameSet(bw.XU, bw.window, name))
	logErr("_NET_WM_WINDOW_TYPE", ewmh.WmWindowTypeSet(bw.XU, bw.window,
		[]string{"_NET_WM_WINDOW_TYPE_DOCK"}))
	logErr("_NET_WM_STATE", ewmh.WmStateSet(bw.XU, bw.window, []string{
		"_NET_WM_STATE_ABOVE",
		"_NET_WM_STATE_STICKY",
		"_NET_WM_STATE_SKIP_TASKBAR",
		"_NET_WM_STATE_SKIP_PAGER",
	}))
}

func (bw *BoxWindow) newSurface(width, height int) *xSurface {
	return &xSurface{
		bw:  bw,
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// xSurface is an in-memory image uploaded to the window on Flush.
type xSurface struct {
	bw  *BoxWindow
	img *image.RGBA
}

func (s *xSurface) Image() draw.Image { return s.img }
func (s *xSurface) Size() image.Point { return s.img.Bounds().Size() }

func (s *xSurface) Flush() error {
	bw := s.bw
	size := s.Size()
	if size.X <= 0 || size.Y <= 0 {
		return nil
	}

	rows := rowsPerRequest(size.X, bw.maxBytes)
	for y := 0; y < size.Y; y += rows {
		n := min(rows, size.Y-y)
		data := zpixmap(s.img, y, n, bw.byteOrder)
		err := xproto.PutImageChecked(bw.X,
			xproto.ImageFormatZPixmap,
			xproto.Drawable(bw.window),
			bw.gc,
			uint16(size.X), uint16(n),
			0, int16(y),
			0,
			bw.depth,
			data).Check()
		if err != nil {
			return fmt.Errorf("put image rows %d-%d: %w", y, y+n, err)
		}
	}
	return nil
}

// rowsPerRequest is how many rows of the given width fit in one PutImage
// request of at most maxBytes, and at least one.
func rowsPerRequest(width, maxBytes int) int {
	stride := width * bitsPerPixel / 8
	if stride == 0 {
		return 1
	}
	return max((maxBytes-putImageHeader)/stride, 1)
}

// zpixmap converts rows [y, y+n) of img into 32 bits per pixel ARGB in the
// server's byte order. image.RGBA is already premultiplied.
func zpixmap(img *image.RGBA, y, n int, order byte) []byte {
	b := img.Bounds()
	w := b.Dx()
	out := make([]byte, 0, w*n*4)
	for row := y; row < y+n; row++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+row)
		for x := 0; x < w; x++ {
			p := img.Pix[off+x*4 : off+x*4+4]
			if order == xproto.ImageOrderLSBFirst {
				out = append(out, p[2], p[1], p[0], p[3])
			} else {
				out = append(out, p[3], p[0], p[1], p[2])
			}
		}
	}
	return out
}
