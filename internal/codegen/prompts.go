package codegen

import (
	"fmt"

	"github.com/sitesmith/sitesmith/internal/models"
)

// DefaultStylesheet is injected when the generated page carries no <style>
const DefaultStylesheet = `
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: 'Roboto', sans-serif; background: #ffffff; color: #333333; line-height: 1.6; }
h1, h2, h3 { font-family: 'Playfair Display', serif; color: #1e40af; margin-bottom: 20px; }
header { background: #ffffff; box-shadow: 0 2px 5px rgba(0, 0, 0, 0.1); padding: 20px; text-align: center; }
nav a { color: #1e40af; margin: 0 15px; text-decoration: none; font-weight: 600; }
nav a:hover { color: #3b82f6; }
main { max-width: 1200px; margin: 0 auto; padding: 20px; background: #ffffff; }
button { background: #1e40af; color: #ffffff; padding: 10px 20px; border: none; border-radius: 5px; cursor: pointer; }
button:hover { background: #3b82f6; }
footer { background: #f8fafc; color: #4b5563; padding: 20px; text-align: center; }
.product-card { display: grid; gap: 20px; padding: 15px; border: 1px solid #ddd; border-radius: 8px; box-shadow: 0 2px 5px rgba(0,0,0,0.1); }
@keyframes fadeIn { 0% { opacity: 0; } 100% { opacity: 1; } }
@keyframes slideIn { 0% { transform: translateX(-100%); } 100% { transform: translateX(0); } }
.animated { animation: fadeIn 0.5s ease-in-out; }
i { margin-right: 8px; }
`

func (s *Service) buildGenerateSystemPrompt(intent models.ModificationIntent, pageName, folderName, siteType string) string {
	return fmt.Sprintf(`You are an expert web developer who builds dynamic, context-aware pages.
Generate or modify HTML/CSS content that strictly follows the page theme and the user request.

1. Theme
   - The page is '%[1]s' in folder '%[2]s' of a %[3]s website. Derive the core theme from these names.
   - Every piece of content must be relevant to that theme.

2. Content
   - Never use placeholder text such as Lorem Ipsum.
   - Write realistic, theme-specific content in %[4]s.
   - Organize the page into logical sections with a main title that reflects the theme.

3. Requested modification
   - Action: '%[5]s' applied precisely to '%[6]s'
   - Content: '%[7]s', expanded into complete, theme-appropriate elements
   - Style: %[8]s, implemented with theme-consistent colors
   - Icon: '%[9]s', used only when semantically relevant

4. Icons
   - Use Font Awesome markup: <i class="fas fa-NAME"></i> before the text of buttons and links.
   - For sections, put the icon in a wrapper div above the section content.
   - Do not add icons to titles (h1 to h6) or navigation bars.
   - Add aria-labels to elements carrying icons.

5. Quality
   - Semantic, accessible HTML with alt text on every image.
   - Mobile-first CSS with flex or grid, embedded in a <style> element in <head>.
   - Elements with an entrance animation carry the class "animated".

6. Output
   - Return one complete HTML document and nothing else.
   - No explanations, notes or commentary outside the code.
   - Preserve all existing content unless told to remove or modify it.`,
		pageName, folderName, siteType, s.language,
		intent.Action, intent.Target, intent.Content, intent.StyleJSON(), intent.IconOrNone())
}

func buildGenerateUserPrompt(currentCode, existingPages string, intent models.ModificationIntent) string {
	return fmt.Sprintf(`Current code:
%s

Existing pages: %s

Structured prompt:
Action: %s
Target: %s
Content: %s
Style: %s
Icon: %s

Apply the requested modifications to the current code. Preserve all existing content unless explicitly instructed to remove or modify specific elements.`,
		currentCode, existingPages,
		intent.Action, intent.Target, intent.Content, intent.StyleJSON(), intent.IconOrNone())
}

func (s *Service) buildPageSystemPrompt(pageName string) string {
	return fmt.Sprintf(`You are an expert web developer. Generate a complete HTML/CSS page named '%s'.
The design must be modern, professional and responsive, with all CSS inside a <style> element in <head>.
Write all visible text in %s.
Return only the code, wrapped in a fenced html block.

Rules:
- Never use demo or placeholder images (picsum.photos, placekitten, loremflickr, unsplash and similar).
- Never use background-image with an external URL in CSS, including parallax sections.
- For every image write <img src="" alt="relevant description">; real images are added afterwards.
- Never write a src starting with http or data: in <img> tags.
- Each alt text relates directly to the page content or name.
- Never produce explanatory text, examples, notes or comments outside the HTML.`, pageName, s.language)
}

func buildPageUserPrompt(prompt, pageName string) string {
	if prompt == "" {
		prompt = fmt.Sprintf("Create a %s page for the website.", pageName)
	}
	return prompt + `

Make the design creative and professional: pair a decorative heading font such as 'Playfair Display' with a sans-serif body font such as 'Quicksand', use vibrant color gradients, smooth animations and interactive hover effects on links and buttons. Keep the page responsive and accessible.`
}
