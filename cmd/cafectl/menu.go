package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cafedesk/internal/api"
	"cafedesk/internal/domain"
	"cafedesk/internal/validate"
	"cafedesk/internal/views"
)

func menuCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Browse and edit the menu",
	}
	cmd.AddCommand(menuBrowseCmd(a), menuListCmd(a), menuAddCmd(a), menuUpdateCmd(a), menuDeleteCmd(a))
	return cmd
}

func printItems(a *app, items []domain.MenuItem) {
	fmt.Fprintf(a.out, "%-26s %-26s %-10s %8s %s\n", "ID", "Name", "Category", "Price", "Available")
	fmt.Fprintln(a.out, strings.Repeat("-", 82))
	for _, it := range items {
		avail := "yes"
		if !it.IsAvailable {
			avail = "no"
		}
		fmt.Fprintf(a.out, "%-26s %-26s %-10s %8.2f %s\n",
			truncateString(it.ID, 26), truncateString(it.Name, 26), it.Category, it.Price, avail)
	}
}

func printPage[T any](a *app, p views.Page[T]) {
	fmt.Fprintf(a.out, "Page %d of %d (%d items)\n", p.Number, p.Total, p.Count)
}

// menu browse is the public menu: one category, nine to a page.
func menuBrowseCmd(a *app) *cobra.Command {
	var category string
	var page int
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Show the public menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := views.NewMenu(a.api.Menu)
			defer m.Close()
			if err := m.Load(ctxOf(cmd)); err != nil {
				return a.failure(err, "Failed to load menu items.")
			}
			if category != "" {
				m.SetCategory(category)
			}
			m.SetPage(page)
			fmt.Fprintf(a.out, "Categories: %s\n", strings.Join(m.Categories(), ", "))
			fmt.Fprintf(a.out, "Showing: %s\n\n", m.Category())
			p := m.Page()
			printItems(a, p.Items)
			printPage(a, p)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category to show")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func menuListCmd(a *app) *cobra.Command {
	var search string
	var page int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List menu items for editing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			m := views.NewCatalogueManager(a.api.Menu)
			defer m.Close()
			if err := m.Load(ctxOf(cmd)); err != nil {
				return a.failure(err, "Failed to load menu items.")
			}
			m.SetSearch(strings.TrimSpace(search))
			m.SetPage(page)
			p := m.Page()
			printItems(a, p.Items)
			printPage(a, p)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by name")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

type itemFlags struct {
	name, description, price, category, image string
	available                                 bool
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "item name")
	cmd.Flags().StringVar(&f.description, "description", "", "item description")
	cmd.Flags().StringVar(&f.price, "price", "", "price, e.g. 3.50")
	cmd.Flags().StringVar(&f.category, "category", "", "one of "+categoryList())
	cmd.Flags().BoolVar(&f.available, "available", true, "item can be ordered")
	cmd.Flags().StringVar(&f.image, "image", "", "path to a JPEG or PNG")
}

func categoryList() string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func (a *app) loadImage(path string) (*domain.Upload, error) {
	if path == "" {
		return nil, nil
	}
	return api.LoadUpload(path, a.cfg.UploadMaxWidth)
}

func menuAddCmd(a *app) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a menu item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			in := domain.MenuItemInput{
				Name:        strings.TrimSpace(f.name),
				Description: strings.TrimSpace(f.description),
				Category:    domain.Category(f.category),
				IsAvailable: f.available,
			}
			price, ok := validate.Price(f.price)
			if !ok {
				return errors.New("price: Enter a valid price")
			}
			in.Price = price
			img, err := a.loadImage(f.image)
			if err != nil {
				return err
			}
			in.Image = img
			m := views.NewCatalogueManager(a.api.Menu)
			defer m.Close()
			if err := m.Create(ctxOf(cmd), in); err != nil {
				return a.failure(err, "Failed to save menu item.")
			}
			a.saved(m.Status(), "Added %s", in.Name)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func menuUpdateCmd(a *app) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a menu item; only the flags given are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			id, ok := validate.ID(args[0])
			if !ok {
				return errors.New("invalid id")
			}
			var p domain.MenuItemPatch
			changed := cmd.Flags().Changed
			if changed("name") {
				v := strings.TrimSpace(f.name)
				p.Name = &v
			}
			if changed("description") {
				v := strings.TrimSpace(f.description)
				p.Description = &v
			}
			if changed("price") {
				v, ok := validate.Price(f.price)
				if !ok {
					return errors.New("price: Enter a valid price")
				}
				p.Price = &v
			}
			if changed("category") {
				v := domain.Category(f.category)
				p.Category = &v
			}
			if changed("available") {
				v := f.available
				p.IsAvailable = &v
			}
			img, err := a.loadImage(f.image)
			if err != nil {
				return err
			}
			p.Image = img

			m := views.NewCatalogueManager(a.api.Menu)
			defer m.Close()
			ctx := ctxOf(cmd)
			if err := m.Load(ctx); err != nil {
				return a.failure(err, "Failed to load menu items.")
			}
			if _, ok := m.Find(id); !ok {
				return fmt.Errorf("no menu item %s", id)
			}
			if err := m.Update(ctx, id, p); err != nil {
				return a.failure(err, "Failed to save menu item.")
			}
			a.saved(m.Status(), "Updated %s", id)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func menuDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a menu item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			id, ok := validate.ID(args[0])
			if !ok {
				return errors.New("invalid id")
			}
			m := views.NewCatalogueManager(a.api.Menu)
			defer m.Close()
			if err := m.Delete(ctxOf(cmd), id); err != nil {
				return a.failure(err, "Failed to delete menu item.")
			}
			a.saved(m.Status(), "Deleted %s", id)
			return nil
		},
	}
}
