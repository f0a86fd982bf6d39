// ABOUTME: Discount code CLI commands
// ABOUTME: Human-friendly commands for adding, listing, and using codes
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harperreed/dealstash/analytics"
	"github.com/harperreed/dealstash/models"
	"github.com/harperreed/dealstash/store"
)

// AddCodeCommand adds a new discount code.
func AddCodeCommand(codes *store.CodeStore, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	code := fs.String("code", "", "Discount code (required)")
	storeName := fs.String("store", "", "Store name (required)")
	discount := fs.String("discount", "", "Discount, e.g. \"20%\" or \"€10\" (required)")
	category := fs.String("category", models.CategoryOther, "Category (fashion, electronics, food, travel, entertainment, other)")
	price := fs.Float64("price", 0, "Original price, for percentage savings estimates")
	expires := fs.String("expires", "", "Expiry date (YYYY-MM-DD)")
	description := fs.String("description", "", "Free-form description")
	_ = fs.Parse(args)

	if *code == "" || *storeName == "" || *discount == "" {
		return fmt.Errorf("--code, --store, and --discount are required")
	}

	c := models.NewDiscountCode(*code, *storeName, *discount, *category)
	c.Description = *description
	if *price > 0 {
		p := *price
		c.OriginalPrice = &p
	}
	if *expires != "" {
		exp, err := time.Parse("2006-01-02", *expires)
		if err != nil {
			return fmt.Errorf("invalid expiry date %q: %w", *expires, err)
		}
		c.ExpiryDate = &exp
	}

	if err := codes.Put(c); err != nil {
		return fmt.Errorf("failed to save code: %w", err)
	}

	fmt.Println(ok(fmt.Sprintf("Code added: %s at %s (ID: %s)", c.Code, c.Store, c.ID)))
	fmt.Printf("  Discount: %s\n", c.Discount)
	if c.ExpiryDate != nil {
		fmt.Printf("  Expires: %s\n", c.ExpiryDate.Format("2006-01-02"))
	}
	return nil
}

// ListCodesCommand lists stored codes.
func ListCodesCommand(codes *store.CodeStore, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	category := fs.String("category", "", "Filter by category")
	storeName := fs.String("store", "", "Filter by store name")
	all := fs.Bool("all", false, "Include archived codes")
	favorites := fs.Bool("favorites", false, "Only favorites")
	_ = fs.Parse(args)

	list, err := codes.List()
	if err != nil {
		return fmt.Errorf("failed to list codes: %w", err)
	}

	now := time.Now()
	var rows []models.DiscountCode
	for _, c := range list {
		if c.IsArchived && !*all {
			continue
		}
		if *favorites && !c.IsFavorite {
			continue
		}
		if *category != "" && c.Category != *category {
			continue
		}
		if *storeName != "" && !strings.EqualFold(c.Store, *storeName) {
			continue
		}
		rows = append(rows, c)
	}

	if len(rows) == 0 {
		fmt.Println("No codes found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CODE\tSTORE\tDISCOUNT\tCATEGORY\tUSED\tEXPIRES\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t--------\t--------\t----\t-------\t--")

	for _, c := range rows {
		expires := "-"
		if c.ExpiryDate != nil {
			expires = c.ExpiryDate.Format("2006-01-02")
			if c.IsExpired(now) {
				expires += " (expired)"
			}
		}
		name := c.Code
		if c.IsFavorite {
			name = "★ " + name
		}
		if c.IsArchived {
			name += " (archived)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			name, c.Store, c.Discount, c.Category, c.TimesUsed, expires, c.ID[:8])
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d code(s)\n", len(rows))
	return nil
}

// UseCodeCommand records one use of a code.
func UseCodeCommand(codes *store.CodeStore, args []string) error {
	fs := flag.NewFlagSet("use", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("code ID is required")
	}

	c, err := resolveCode(codes, fs.Args()[0])
	if err != nil {
		return err
	}

	updated, err := codes.RecordUsage(c.ID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}

	fmt.Println(ok(fmt.Sprintf("Used %s at %s (%d time(s) total)", updated.Code, updated.Store, updated.TimesUsed)))
	if saving := updated.EstimatedSaving(); saving > 0 {
		fmt.Printf("  Estimated saving: %.2f\n", saving)
	}
	return nil
}

// FavoriteCommand toggles the favorite flag of a code.
func FavoriteCommand(codes *store.CodeStore, args []string) error {
	fs := flag.NewFlagSet("favorite", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("code ID is required")
	}

	c, err := resolveCode(codes, fs.Args()[0])
	if err != nil {
		return err
	}

	updated, err := codes.ToggleFavorite(c.ID)
	if err != nil {
		return fmt.Errorf("failed to toggle favorite: %w", err)
	}

	if updated.IsFavorite {
		fmt.Println(ok(fmt.Sprintf("Favorited %s", updated.Code)))
	} else {
		fmt.Println(ok(fmt.Sprintf("Unfavorited %s", updated.Code)))
	}
	return nil
}

// ArchiveCommand toggles the archived flag of a code.
func ArchiveCommand(codes *store.CodeStore, args []string) error {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("code ID is required")
	}

	c, err := resolveCode(codes, fs.Args()[0])
	if err != nil {
		return err
	}

	updated, err := codes.ToggleArchive(c.ID)
	if err != nil {
		return fmt.Errorf("failed to toggle archive: %w", err)
	}

	if updated.IsArchived {
		fmt.Println(ok(fmt.Sprintf("Archived %s", updated.Code)))
	} else {
		fmt.Println(ok(fmt.Sprintf("Restored %s", updated.Code)))
	}
	return nil
}

// DeleteCodeCommand permanently removes a code.
func DeleteCodeCommand(codes *store.CodeStore, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	_ = fs.Parse(args)

	if len(fs.Args()) < 1 {
		return fmt.Errorf("code ID is required")
	}

	c, err := resolveCode(codes, fs.Args()[0])
	if err != nil {
		return err
	}

	if err := codes.Delete(c.ID); err != nil {
		return fmt.Errorf("failed to delete code: %w", err)
	}

	fmt.Println(ok(fmt.Sprintf("Deleted %s (%s)", c.Code, c.Store)))
	return nil
}

// StatsCommand prints aggregate usage statistics.
func StatsCommand(codes *store.CodeStore, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	top := fs.Int("top", 5, "Number of most-used codes to show")
	_ = fs.Parse(args)

	list, err := codes.List()
	if err != nil {
		return fmt.Errorf("failed to list codes: %w", err)
	}

	now := time.Now()
	fmt.Println(headerStyle.Render("STATS"))
	fmt.Printf("  Codes: %d (%d active)\n", len(list), analytics.ActiveCount(list, now))
	fmt.Printf("  Total uses: %d\n", analytics.TotalUses(list))
	fmt.Printf("  Estimated savings: %.2f\n", analytics.TotalSavings(list))

	if expiring := analytics.ExpiringWithin(list, now, 7*24*time.Hour); len(expiring) > 0 {
		fmt.Println()
		fmt.Println(warn(fmt.Sprintf("%d code(s) expiring within a week:", len(expiring))))
		for _, c := range expiring {
			fmt.Printf("  %s at %s (expires %s)\n", c.Code, c.Store, c.ExpiryDate.Format("2006-01-02"))
		}
	}

	mostUsed := analytics.MostUsed(list, *top)
	if len(mostUsed) > 0 && mostUsed[0].TimesUsed > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render("MOST USED"))
		for _, c := range mostUsed {
			if c.TimesUsed == 0 {
				break
			}
			fmt.Printf("  %s at %s: %d use(s)\n", c.Code, c.Store, c.TimesUsed)
		}
	}

	byCategory := analytics.CountByCategory(list)
	if len(byCategory) > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render("BY CATEGORY"))
		for _, cat := range []string{
			models.CategoryFashion, models.CategoryElectronics, models.CategoryFood,
			models.CategoryTravel, models.CategoryEntertainment, models.CategoryOther,
		} {
			if n := byCategory[cat]; n > 0 {
				fmt.Printf("  %s: %d\n", cat, n)
			}
		}
	}

	return nil
}

// resolveCode finds a code by full ID or unique ID prefix.
func resolveCode(codes *store.CodeStore, id string) (*models.DiscountCode, error) {
	c, err := codes.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}
	if c != nil {
		return c, nil
	}

	list, err := codes.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list codes: %w", err)
	}

	var match *models.DiscountCode
	for i := range list {
		if strings.HasPrefix(list[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous code ID prefix: %s", id)
			}
			match = &list[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("code not found: %s", id)
	}
	return match, nil
}
