package notify

import "fmt"

// InvitationSubject renders the invitation subject line for a plant.
func InvitationSubject(plantName string) string {
	return fmt.Sprintf("🌱 You're invited to be a Bloom Buddy for %s!", plantName)
}

// InvitationHTML renders the invitation body. Kept deliberately simple; the
// visual design lives with the frontend team.
func InvitationHTML(plantName, inviterName, joinURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
    <h1 style="color: #059669;">GrowTogether</h1>
    <p>%s has invited you to help care for <strong>%s</strong>.</p>
    <p>As a Bloom Buddy you can water, feed, and play with the plant, and
    watch it grow through its stages together.</p>
    <p><a href="%s" style="background: #10b981; color: white; padding: 12px 24px; border-radius: 8px; text-decoration: none;">Join as a Bloom Buddy</a></p>
  </body>
</html>`, inviterName, plantName, joinURL)
}
