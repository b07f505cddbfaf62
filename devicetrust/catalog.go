package devicetrust

// messagingCatalog is the fixed pool of plausible device names shown to
// recipients when the sender is not a Pro user. Picking from it instead
// of the real model keeps anonymous messages from being fingerprinted.
var messagingCatalog = []string{
	"iPhone 15 Pro",
	"Samsung Galaxy S24",
	"Google Pixel 8",
	"OnePlus 12",
	"Xiaomi 14",
	"iPhone 14",
	"Samsung Galaxy A54",
	"Google Pixel 7a",
	"Nothing Phone 2",
	"Sony Xperia 1 V",
	"iPhone 13 mini",
	"Samsung Galaxy Z Flip5",
	"Motorola Edge 40",
	"Realme GT3",
	"OPPO Find X6",
}
