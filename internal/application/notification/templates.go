package notification

import "html/template"

const customerTemplateText = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: {{if .Failed}}#dc2626{{else}}#059669{{end}}; margin-bottom: 20px;">{{.Subject}}</h2>
  <div style="background: #f3f4f6; padding: 15px; border-radius: 8px; margin-bottom: 20px;">
    <h3 style="margin: 0 0 15px 0; color: #374151;">Order Details</h3>
    <table style="width: 100%; border-collapse: collapse;">
      <tr><td style="padding: 10px 0; color: #6b7280; font-weight: 600;">Reference:</td><td style="padding: 10px 0;">{{.Reference}}</td></tr>
      <tr><td style="padding: 10px 0; color: #6b7280; font-weight: 600;">Network:</td><td style="padding: 10px 0;">{{.Network}}</td></tr>
      <tr><td style="padding: 10px 0; color: #6b7280; font-weight: 600;">Phone:</td><td style="padding: 10px 0;">{{.Phone}}</td></tr>
      <tr><td style="padding: 10px 0; color: #6b7280; font-weight: 600;">Data Amount:</td><td style="padding: 10px 0;">{{.DataAmount}}GB</td></tr>
      <tr><td style="padding: 10px 0; color: #6b7280; font-weight: 600;">Amount Paid:</td><td style="padding: 10px 0;">GH₵{{.AmountPaid}}</td></tr>
      <tr><td style="padding: 10px 0; color: #6b7280; font-weight: 600;">Status:</td><td style="padding: 10px 0;">{{.Status}}</td></tr>
      {{- if .OrderID}}
      <tr><td style="padding: 10px 0; color: #6b7280; font-weight: 600;">Order ID:</td><td style="padding: 10px 0; font-weight: 600;">{{.OrderID}}</td></tr>
      {{- end}}
      {{- if .ExpectedDelivery}}
      <tr><td style="padding: 10px 0; color: #6b7280; font-weight: 600;">Delivery Time:</td><td style="padding: 10px 0;">{{.ExpectedDelivery}}</td></tr>
      {{- end}}
      {{- if .RemainingBalance}}
      <tr><td style="padding: 10px 0; color: #6b7280; font-weight: 600;">Remaining Balance:</td><td style="padding: 10px 0; color: #059669; font-weight: 600;">{{.RemainingBalance}}</td></tr>
      {{- end}}
    </table>
  </div>
  {{- if .Error}}
  <div style="background: #fee2e2; padding: 15px; border-radius: 8px; margin-bottom: 20px; border-left: 4px solid #dc2626;">
    <h3 style="margin: 0 0 10px 0; color: #991b1b;">Error Details</h3>
    <p style="margin: 0; color: #7f1d1d;">{{.Error}}</p>
  </div>
  {{- end}}
  {{- if .Note}}
  <div style="background: #dbeafe; padding: 15px; border-radius: 8px; margin-bottom: 20px;">
    <p style="margin: 0; color: #1e40af;">{{.Note}}</p>
  </div>
  {{- end}}
  <div style="border-top: 2px solid #e5e7eb; padding-top: 20px; margin-top: 20px;">
    <p style="color: #6b7280; font-size: 12px; margin: 0;">This is an automated email from {{.ShopName}}. If you have any questions, please contact our support team.</p>
  </div>
</div>`

const operatorTemplateText = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="margin-bottom: 20px;">{{.Subject}}</h2>
  <div style="background: #f3f4f6; padding: 15px; border-radius: 8px; margin-bottom: 20px;">
    <p><strong>Reference:</strong> {{.Reference}}</p>
    <p><strong>Customer:</strong> {{.CustomerEmail}}</p>
    <p><strong>Network:</strong> {{.Network}}</p>
    <p><strong>Phone:</strong> {{.Phone}}</p>
    <p><strong>Data Amount:</strong> {{.DataAmount}}GB</p>
    <p><strong>Amount Paid:</strong> GH₵{{.AmountPaid}}</p>
    <p><strong>Status:</strong> {{.Status}}</p>
    {{- if .OrderID}}
    <p><strong>Order ID:</strong> {{.OrderID}}</p>
    {{- end}}
    {{- if .RemainingBalance}}
    <p><strong>Remaining Balance:</strong> {{.RemainingBalance}}</p>
    {{- end}}
  </div>
  {{- if .Error}}
  <div style="background: #fee2e2; padding: 15px; border-radius: 8px; margin-bottom: 20px; border-left: 4px solid #dc2626;">
    <h3 style="margin: 0 0 10px 0; color: #991b1b;">Action Required</h3>
    <p style="margin: 0; color: #7f1d1d;">{{.Error}}</p>
  </div>
  {{- end}}
  <h3>Full Record</h3>
  <pre style="background: #111827; color: #e5e7eb; padding: 15px; border-radius: 8px; overflow-x: auto; font-size: 12px;">{{.Dump}}</pre>
</div>`

var (
	customerTemplate = template.Must(template.New("customer").Parse(customerTemplateText))
	operatorTemplate = template.Must(template.New("operator").Parse(operatorTemplateText))
)
