// Package qrcode renders paste links as PNG QR codes.
//
//	png, err := qrcode.Generate("https://dustebin.example/abcd1234.py", 256)
//
// GenerateBase64Image returns the same image as a data URI.
package qrcode
