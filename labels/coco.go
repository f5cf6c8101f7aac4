package labels

// NotAvailable marks category ids that the COCO detection release leaves unused.
const NotAvailable = "N/A"

// COCOCategories is indexed by COCO category_id. Ids 1-90 map to the 80 detection
// classes; unused ids are NotAvailable.
var COCOCategories = []string{
	Background, "person", "bicycle", "car", "motorcycle", "airplane", "bus",
	"train", "truck", "boat", "traffic light", "fire hydrant", NotAvailable, "stop sign",
	"parking meter", "bench", "bird", "cat", "dog", "horse", "sheep", "cow",
	"elephant", "bear", "zebra", "giraffe", NotAvailable, "backpack", "umbrella", NotAvailable, NotAvailable,
	"handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", NotAvailable, "wine glass", "cup", "fork", "knife", "spoon", "bowl",
	"banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza",
	"donut", "cake", "chair", "couch", "potted plant", "bed", NotAvailable, "dining table",
	NotAvailable, NotAvailable, "toilet", NotAvailable, "tv", "laptop", "mouse", "remote", "keyboard", "cell phone",
	"microwave", "oven", "toaster", "sink", "refrigerator", NotAvailable, "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// COCOCategoryName returns the class name of a COCO category id.
// ok is false for ids outside the table, for 0 and for unused ids.
func COCOCategoryName(categoryID int) (name string, ok bool) {
	if categoryID <= 0 || categoryID >= len(COCOCategories) {
		return "", false
	}
	name = COCOCategories[categoryID]
	if name == NotAvailable {
		return "", false
	}
	return name, true
}
