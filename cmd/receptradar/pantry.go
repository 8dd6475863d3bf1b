package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hyperengineering/receptradar"
)

var pantryCmd = &cobra.Command{
	Use:   "pantry",
	Short: "Manage the products you have at home",
	Long: `Add, list and remove pantry products.

Product names are normalized for recipe matching: package sizes, punctuation
and case are stripped, so "Krossade tomater (400 g)" matches a
recipe asking for "krossade tomater".`,
}

var pantryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a product to the pantry",
	Example: `  receptradar pantry add "Mellanmjölk 1,5%" --quantity 1 --unit l
  receptradar pantry add Ägg --quantity 12 --unit st --best-before 2026-11-02`,
	Args: cobra.ExactArgs(1),
	RunE: runPantryAdd,
}

var pantryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pantry products",
	Args:  cobra.NoArgs,
	RunE:  runPantryList,
}

var pantryRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove a pantry product",
	Args:    cobra.ExactArgs(1),
	RunE:    runPantryRm,
}

var pantryImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Add products from a YAML file",
	Long: `Add every product listed in a YAML file.

The file holds either a list of products or a mapping with an "items" list:

  items:
    - name: Mellanmjölk
      quantity: 1
      unit: l
    - name: Krossade tomater (400 g)
      category: Konserver
      best_before: 2027-01-31`,
	Args: cobra.ExactArgs(1),
	RunE: runPantryImport,
}

var (
	pantryQuantity   float64
	pantryUnit       string
	pantryCategory   string
	pantryBarcode    string
	pantryBestBefore string
)

func init() {
	pantryAddCmd.Flags().Float64Var(&pantryQuantity, "quantity", 0, "Amount on hand")
	pantryAddCmd.Flags().StringVar(&pantryUnit, "unit", "", "Unit for --quantity (l, st, g, ...)")
	pantryAddCmd.Flags().StringVar(&pantryCategory, "category", "", "Product category")
	pantryAddCmd.Flags().StringVar(&pantryBarcode, "barcode", "", "Product barcode (EAN)")
	pantryAddCmd.Flags().StringVar(&pantryBestBefore, "best-before", "", "Best-before date (YYYY-MM-DD)")

	pantryCmd.AddCommand(pantryAddCmd)
	pantryCmd.AddCommand(pantryListCmd)
	pantryCmd.AddCommand(pantryRmCmd)
	pantryCmd.AddCommand(pantryImportCmd)
	rootCmd.AddCommand(pantryCmd)
}

func runPantryAdd(cmd *cobra.Command, args []string) error {
	in := receptradar.NewPantryItem{
		Name:     args[0],
		Unit:     pantryUnit,
		Category: pantryCategory,
		Barcode:  pantryBarcode,
	}
	if cmd.Flags().Changed("quantity") {
		q := pantryQuantity
		in.Quantity = &q
	}
	if pantryBestBefore != "" {
		t, err := time.ParseInLocation("2006-01-02", pantryBestBefore, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --best-before %q: want YYYY-MM-DD", pantryBestBefore)
		}
		in.BestBefore = &t
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	item, err := client.AddPantryItem(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("add pantry item: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, item)
	}
	out := cmd.OutOrStdout()
	printSuccess(out, "Added %s (id %d)", item.Name, item.ID)
	if name := item.IngredientName(); name != "" {
		printMuted(out, "  matches recipes as %q", name)
	}
	return nil
}

func runPantryList(cmd *cobra.Command, args []string) error {
	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	items, err := client.Pantry(cmd.Context())
	if err != nil {
		return fmt.Errorf("list pantry: %w", err)
	}
	return outputPantry(cmd, items)
}

func runPantryRm(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid pantry id %q", args[0])
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	item, err := client.Store().Pantry().Get(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("pantry item %d not found", id)
	}
	if err := client.RemovePantryItem(ctx, id); err != nil {
		return fmt.Errorf("remove pantry item: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, map[string]interface{}{"removed": item})
	}
	printSuccess(cmd.OutOrStdout(), "Removed %s (id %d)", item.Name, item.ID)
	return nil
}

// pantryFile is the YAML layout accepted by pantry import.
type pantryFile struct {
	Items []receptradar.NewPantryItem `yaml:"items"`
}

// parsePantryYAML accepts a top-level list of products or a mapping with an
// items list.
func parsePantryYAML(data []byte) ([]receptradar.NewPantryItem, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("parse yaml: empty document")
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var items []receptradar.NewPantryItem
		if err := root.Decode(&items); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return items, nil
	case yaml.MappingNode:
		var f pantryFile
		if err := root.Decode(&f); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return f.Items, nil
	default:
		return nil, fmt.Errorf("parse yaml: line %d: expected a list of products", root.Line)
	}
}

// PantryImportResult for JSON output.
type PantryImportResult struct {
	File    string                   `json:"file"`
	Added   []receptradar.PantryItem `json:"added"`
	Skipped []string                 `json:"skipped,omitempty"`
}

func runPantryImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	items, err := parsePantryYAML(data)
	if err != nil {
		return err
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	result := PantryImportResult{File: args[0], Added: []receptradar.PantryItem{}}
	for i, in := range items {
		item, err := client.AddPantryItem(cmd.Context(), in)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("item %d: %v", i+1, err))
			continue
		}
		result.Added = append(result.Added, *item)
	}

	if outputJSON {
		return outputAsJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	printSuccess(out, "Added %d of %d products from %s", len(result.Added), len(items), args[0])
	for _, s := range result.Skipped {
		printWarning(out, "Skipped %s", s)
	}
	return nil
}
