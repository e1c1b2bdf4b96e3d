package dutchie

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// storeKeysFromHTML pulls the store keys out of a rendered page snapshot.
// Each menu entry carries data-testid="rebrand-header_menu-item_<key>"; the
// key doubles as the display name used to select the store later. Order
// follows the menu.
func storeKeysFromHTML(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var keys []string
	doc.Find(selStoreItemsAll).Each(func(_ int, sel *goquery.Selection) {
		id, ok := sel.Attr("data-testid")
		if !ok {
			return
		}
		key := strings.TrimPrefix(id, storeItemPrefix)
		if key != "" {
			keys = append(keys, key)
		}
	})
	return keys
}
