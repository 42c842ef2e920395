package templates

import (
	"fmt"
	"html"
)

// RenderNewAnswerEmail tells a page owner about a new answer
func RenderNewAnswerEmail(slug, question, answer string) string {
	body := fmt.Sprintf(`<p><strong>leng.app/%s</strong> sayfanızdaki soruya yeni bir cevap geldi.</p>
<p class="quote">%s</p>
<p>%s</p>`, html.EscapeString(slug), html.EscapeString(question), html.EscapeString(answer))
	return layout("Yeni cevap", body)
}

// RenderNewOrderEmail tells a shop owner about a new order
func RenderNewOrderEmail(slug, orderID string, totalCents int64) string {
	body := fmt.Sprintf(`<p><strong>leng.app/%s</strong> vitrininizden yeni bir sipariş geldi.</p>
<p>Sipariş no: <strong>%s</strong><br>Tutar: <strong>%d.%02d</strong></p>`,
		html.EscapeString(slug), html.EscapeString(orderID), totalCents/100, totalCents%100)
	return layout("Yeni sipariş", body)
}

// RenderAgencyWelcomeEmail greets a newly created agency
func RenderAgencyWelcomeEmail(agencyName string) string {
	body := fmt.Sprintf(`<p>Merhaba,</p>
<p><strong>%s</strong> ajansınız leng üzerinde oluşturuldu. Üye sayfalarınız yakında bu ajansa bağlanacak.</p>`,
		html.EscapeString(agencyName))
	return layout("leng'e hoş geldiniz", body)
}
