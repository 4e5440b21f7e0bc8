package api

import (
	"github.com/beevik/etree"
)

const (
	avTransportType = "urn:schemas-upnp-org:service:AVTransport:1"
	soapEnvelopeNS  = "http://schemas.xmlsoap.org/soap/envelope/"
	soapEncodingNS  = "http://schemas.xmlsoap.org/soap/encoding/"
)

// avTransportEnvelope builds the SetAVTransportURI request for url.
func avTransportEnvelope(url string) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	envelope := doc.CreateElement("s:Envelope")
	envelope.CreateAttr("xmlns:s", soapEnvelopeNS)
	envelope.CreateAttr("s:encodingStyle", soapEncodingNS)

	action := envelope.CreateElement("s:Body").CreateElement("u:SetAVTransportURI")
	action.CreateAttr("xmlns:u", avTransportType)
	action.CreateElement("InstanceID").SetText("0")
	action.CreateElement("CurrentURI").SetText(url)
	action.CreateElement("CurrentURIMetaData")

	return doc.WriteToString()
}
