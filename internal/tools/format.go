package tools

import (
	"fmt"
	"strings"

	"motion-server/internal/models"
)

// Prompt assembly helpers shared by the add and edit tools. Each section is
// self-describing so the model can use it without extra framing.

func appendStoryboardSection(b *strings.Builder, scenes []models.SceneContext) {
	if len(scenes) == 0 {
		return
	}
	b.WriteString("\nEXISTING STORYBOARD:\n")
	for _, s := range scenes {
		fmt.Fprintf(b, "- Scene %d: %q (%d frames)\n", s.Order+1, s.Name, s.Duration)
	}
}

func appendReferenceSection(b *strings.Builder, scenes []models.SceneContext) {
	if len(scenes) == 0 {
		return
	}
	b.WriteString("\nREFERENCE SCENES (borrow the styles or patterns the user asked for):\n")
	for _, s := range scenes {
		fmt.Fprintf(b, "--- Scene %d: %q ---\n%s\n", s.Order+1, s.Name, s.Code)
	}
}

func appendWebSection(b *strings.Builder, web *models.WebContext) {
	if web == nil {
		return
	}
	b.WriteString("\nANALYZED WEBSITE:\n")
	fmt.Fprintf(b, "URL: %s\n", web.OriginalURL)
	if web.PageMetadata.Title != "" {
		fmt.Fprintf(b, "Title: %s\n", web.PageMetadata.Title)
	}
	if web.PageMetadata.Description != "" {
		fmt.Fprintf(b, "Description: %s\n", web.PageMetadata.Description)
	}
	if len(web.PageMetadata.Headings) > 0 {
		fmt.Fprintf(b, "Headings: %s\n", strings.Join(web.PageMetadata.Headings, "; "))
	}
	b.WriteString("Screenshots of the page are attached. Match its visual identity.\n")
}

func appendMediaSection(b *strings.Builder, imageURLs, videoURLs []string) {
	if len(imageURLs) > 0 {
		fmt.Fprintf(b, "\nThe user attached %d image(s); they are included in this message. Build the scene around them.\n", len(imageURLs))
	}
	for _, url := range videoURLs {
		fmt.Fprintf(b, "\nVideo asset to embed: %s\n", url)
	}
}

// webImageURLs collects screenshot URLs so vision-capable models see the page.
func webImageURLs(web *models.WebContext) []string {
	if web == nil {
		return nil
	}
	var urls []string
	if web.Screenshots.Desktop != "" {
		urls = append(urls, web.Screenshots.Desktop)
	}
	if web.Screenshots.Mobile != "" {
		urls = append(urls, web.Screenshots.Mobile)
	}
	return urls
}
