// Package dutchie drives the Dutchie back-office catalog UI through
// playwright. It implements portal.Session: authenticate once, then select
// stores and trigger CSV exports that land in a local download directory.
package dutchie

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"inventory/internal/core/portal"
	"inventory/internal/core/watch"
	"inventory/internal/logger"

	"github.com/playwright-community/playwright-go"
)

// Portal selectors. The back-office is a React SPA; data-testid attributes
// are the only stable hooks it exposes.
const (
	selUsername    = "input[data-testid='auth_input_username']"
	selPassword    = "input[data-testid='auth_input_password']"
	selLoginButton = "button[data-testid='auth_button_go-green']"

	selStoreMenu     = "div[data-testid='header_select_location']"
	storeItemPrefix  = "rebrand-header_menu-item_"
	selStoreItemFmt  = "li[data-testid='" + storeItemPrefix + "%s']"
	selStoreItemsAll = "li[data-testid^='" + storeItemPrefix + "']"

	selActionsButton = "#actions-menu-button"
	selExportItem    = "li[data-testid='catalog-list-actions-menu-item-export']"
	selExportCSV     = "[data-testid='export-table-modal-export-csv-button']"
)

const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

type Config struct {
	URL      string
	Headless bool

	// ElementTimeout bounds every UI wait; the portal is not under our
	// control and may hang or change layout.
	ElementTimeout time.Duration
	// MenuSettle is the pause after opening the store menu or activating an
	// entry, while the SPA swaps views.
	MenuSettle time.Duration
	// PageSettle is the pause after a store switch before the actions menu
	// is reliable; the catalog grid re-renders for several seconds.
	PageSettle    time.Duration
	ExportTimeout time.Duration
	PollInterval  time.Duration
}

func (c *Config) applyDefaults() {
	if c.URL == "" {
		c.URL = "https://dusk.backoffice.dutchie.com/products/catalog"
	}
	if c.ElementTimeout <= 0 {
		c.ElementTimeout = 10 * time.Second
	}
	if c.MenuSettle <= 0 {
		c.MenuSettle = time.Second
	}
	if c.PageSettle <= 0 {
		c.PageSettle = 8 * time.Second
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = 60 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
}

type state int

const (
	stateUnauthenticated state = iota
	stateAuthenticated
	stateStoreSelected
	stateExportTriggered
)

func (s state) String() string {
	switch s {
	case stateUnauthenticated:
		return "Unauthenticated"
	case stateAuthenticated:
		return "Authenticated"
	case stateStoreSelected:
		return "StoreSelected"
	case stateExportTriggered:
		return "ExportTriggered"
	}
	return "Unknown"
}

// Session is one authenticated browser session. Not safe for concurrent use;
// the orchestrator owns it for the lifetime of a batch.
type Session struct {
	log         *logger.Logger
	cfg         Config
	pw          *playwright.Playwright
	browser     playwright.Browser
	page        playwright.Page
	state       state
	downloadDir string
	closeOnce   sync.Once
	closeErr    error
}

// Factory returns a portal.Session constructor for the orchestrator, binding
// everything but the per-job download directory.
func Factory(cfg Config) func(downloadDir string) (portal.Session, error) {
	return func(downloadDir string) (portal.Session, error) {
		return New(cfg, downloadDir)
	}
}

// New launches a headless browser, wires downloads into downloadDir and
// navigates to the catalog URL, leaving the session Unauthenticated.
func New(cfg Config, downloadDir string) (*Session, error) {
	cfg.applyDefaults()
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("playwright run: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
			"--no-first-run",
			"--disable-default-apps",
			"--disable-extensions",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	s := &Session{
		log:         logger.New("DutchieSession"),
		cfg:         cfg,
		pw:          pw,
		browser:     browser,
		downloadDir: downloadDir,
		state:       stateUnauthenticated,
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:       playwright.String(desktopUA),
		Viewport:        &playwright.Size{Width: 1920, Height: 1080},
		AcceptDownloads: playwright.Bool(true),
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	s.page = page

	// The portal streams exports as browser downloads; save each one under
	// its suggested name so the directory watcher sees the finished file.
	page.OnDownload(func(d playwright.Download) {
		target := filepath.Join(s.downloadDir, d.SuggestedFilename())
		if err := d.SaveAs(target); err != nil {
			s.log.LogErrorf("saving download %s: %v", d.SuggestedFilename(), err)
			return
		}
		s.log.LogDebugf("download saved: %s", target)
	})

	if _, err := page.Goto(cfg.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(ms(cfg.ElementTimeout)),
	}); err != nil {
		// Slow first paint; give the full load event one longer chance.
		if _, err = page.Goto(cfg.URL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateLoad,
			Timeout:   playwright.Float(2 * ms(cfg.ElementTimeout)),
		}); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open portal %s: %w", cfg.URL, err)
		}
	}
	return s, nil
}

func (s *Session) Authenticate(ctx context.Context, username, password string) error {
	if s.state != stateUnauthenticated {
		return &portal.StateError{Op: "authenticate", State: s.state.String()}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	user := s.page.Locator(selUsername)
	if err := s.waitVisible(user); err != nil {
		return &portal.AuthError{Reason: "login form not reachable", Err: err}
	}
	if err := user.Fill(username); err != nil {
		return &portal.AuthError{Reason: "could not enter username", Err: err}
	}
	if err := s.page.Locator(selPassword).Fill(password); err != nil {
		return &portal.AuthError{Reason: "could not enter password", Err: err}
	}
	if err := s.click(selLoginButton); err != nil {
		return &portal.AuthError{Reason: "could not submit login", Err: err}
	}

	// The store selector only renders once login succeeds; treat it as the
	// post-login page state.
	if err := s.waitVisible(s.page.Locator(selStoreMenu)); err != nil {
		return &portal.AuthError{Reason: "post-login page state not reached", Err: err}
	}
	s.state = stateAuthenticated
	s.log.LogSuccessf("authenticated against %s", s.cfg.URL)
	return nil
}

func (s *Session) StoreKeys(ctx context.Context) ([]string, error) {
	if s.state == stateUnauthenticated {
		return nil, &portal.StateError{Op: "list store keys", State: s.state.String()}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.openStoreMenu(ctx); err != nil {
		return nil, fmt.Errorf("open store menu: %w", err)
	}
	html, err := s.page.Content()
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}
	// Collapse the menu again so the selection state is untouched.
	_ = s.page.Keyboard().Press("Escape")

	keys := storeKeysFromHTML(html)
	s.log.LogInfof("portal lists %d stores", len(keys))
	return keys, nil
}

func (s *Session) SelectStore(ctx context.Context, displayName string) error {
	if s.state != stateAuthenticated && s.state != stateStoreSelected {
		return &portal.StateError{Op: "select store", State: s.state.String()}
	}
	if !sleep(ctx, s.cfg.MenuSettle) {
		return ctx.Err()
	}

	if err := s.openStoreMenu(ctx); err != nil {
		// The entry wait below decides whether this store is reachable.
		s.log.LogWarnf("store menu did not open cleanly: %v", err)
	}

	item := s.page.Locator(fmt.Sprintf(selStoreItemFmt, displayName))
	if err := s.waitVisible(item); err != nil {
		return &portal.StoreNotFoundError{Store: displayName}
	}
	// Menu entries sit under a hover overlay; a JS click is the reliable way
	// to activate them.
	if _, err := item.Evaluate("el => el.click()", nil); err != nil {
		return fmt.Errorf("activate store entry %q: %w", displayName, err)
	}
	if !sleep(ctx, s.cfg.MenuSettle) {
		return ctx.Err()
	}
	s.state = stateStoreSelected
	s.log.LogInfof("store selected: %s", displayName)
	return nil
}

func (s *Session) ExportCurrentStore(ctx context.Context, downloadDir string) (string, error) {
	if s.state != stateStoreSelected {
		return "", &portal.StateError{Op: "export", State: s.state.String()}
	}
	if !sleep(ctx, s.cfg.PageSettle) {
		return "", ctx.Err()
	}

	baseline, err := watch.Snapshot(downloadDir)
	if err != nil {
		return "", fmt.Errorf("snapshot download dir: %w", err)
	}

	if err := s.click(selActionsButton); err != nil {
		return "", fmt.Errorf("open actions menu: %w", err)
	}
	if err := s.click(selExportItem); err != nil {
		return "", fmt.Errorf("choose export action: %w", err)
	}
	if err := s.click(selExportCSV); err != nil {
		return "", fmt.Errorf("confirm csv export: %w", err)
	}
	s.state = stateExportTriggered

	name, ok := watch.AwaitNewFile(ctx, downloadDir, baseline, s.cfg.ExportTimeout, s.cfg.PollInterval)
	s.state = stateStoreSelected
	if !ok {
		return "", &portal.ExportTimeoutError{Dir: downloadDir, Timeout: s.cfg.ExportTimeout}
	}
	s.log.LogSuccessf("export landed: %s", name)
	return name, nil
}

// Close releases the browser and the playwright driver exactly once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				s.closeErr = err
			}
		}
		if s.pw != nil {
			if err := s.pw.Stop(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
		}
		s.state = stateUnauthenticated
	})
	return s.closeErr
}

func (s *Session) openStoreMenu(ctx context.Context) error {
	menu := s.page.Locator(selStoreMenu)
	if err := s.waitVisible(menu); err != nil {
		return err
	}
	_ = menu.ScrollIntoViewIfNeeded()
	if err := menu.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(ms(s.cfg.ElementTimeout))}); err != nil {
		return err
	}
	if !sleep(ctx, s.cfg.MenuSettle) {
		return ctx.Err()
	}
	return nil
}

func (s *Session) waitVisible(loc playwright.Locator) error {
	return loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(ms(s.cfg.ElementTimeout)),
	})
}

func (s *Session) click(sel string) error {
	loc := s.page.Locator(sel)
	if err := s.waitVisible(loc); err != nil {
		return err
	}
	return loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(ms(s.cfg.ElementTimeout))})
}

func ms(d time.Duration) float64 { return float64(d.Milliseconds()) }

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
