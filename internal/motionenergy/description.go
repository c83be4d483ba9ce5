package motionenergy

import "fmt"

// Description is the human-readable text stored with a motion energy series.
// It spells out the ROI geometry and warns that image libraries differ in
// axis order.
func Description(side Side, roi ROI) string {
	return fmt.Sprintf(
		"Motion energy calculated for a region of the %s camera video that is %d pixels wide, "+
			"%d pixels tall, and the top-left corner of the region is the pixel (%d, %d).\n\n"+
			"CAUTION: As each software will load the video in a different orientation, the ROI might need to be adapted. "+
			"For example, when loading the video with cv2 in Python, x and y axes are flipped from the convention used above. "+
			"The region then becomes %s.",
		side, roi.Width, roi.Height, roi.X, roi.Y, roi.RowColSlice(),
	)
}
